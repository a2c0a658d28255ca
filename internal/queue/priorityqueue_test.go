package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dawgym/pipeline/internal/models"
)

func TestPriorityQueue_OrdersByPriorityThenInsertion(t *testing.T) {
	q := NewPriorityQueue()

	low := models.NewJob(1, 1, "cat", "/tmp/a")
	mid := models.NewJob(2, 1, "cat", "/tmp/b")
	first := models.NewJob(3, 1, "cat", "/tmp/c")
	second := models.NewJob(4, 1, "cat", "/tmp/d")

	q.Push(low, 9)
	q.Push(first, 1)
	q.Push(second, 1)
	q.Push(mid, 5)

	assert.Equal(t, first, q.Pop())
	assert.Equal(t, second, q.Pop())
	assert.Equal(t, mid, q.Pop())
	assert.Equal(t, low, q.Pop())
	assert.Nil(t, q.Pop())
}

func TestPriorityQueue_Len(t *testing.T) {
	q := NewPriorityQueue()
	assert.Equal(t, 0, q.Len())
	q.Push(models.NewJob(1, 1, "cat", "/tmp/a"), 5)
	assert.Equal(t, 1, q.Len())
	q.Pop()
	assert.Equal(t, 0, q.Len())
}
