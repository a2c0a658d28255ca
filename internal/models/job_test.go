package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarkBroken_IsSticky(t *testing.T) {
	job := NewJob(1, 1, "cat", "/tmp/x")
	job.MarkBroken("first error")
	assert.True(t, job.Broken)

	job.TextContent = "later overwritten by a non-broken-aware caller"
	job.MarkBroken("second error")
	assert.True(t, job.Broken)
	assert.Equal(t, "second error", job.TextContent)
}

func TestClone_DeepCopiesMutableFields(t *testing.T) {
	score := 12.5
	job := &Job{
		EntryFiles:       []string{"A.java"},
		BannedMatches:    []string{"System.exit"},
		AbstractionScore: &score,
	}

	clone := job.Clone()
	clone.EntryFiles[0] = "B.java"
	*clone.AbstractionScore = 99

	assert.Equal(t, "A.java", job.EntryFiles[0])
	assert.Equal(t, 12.5, *job.AbstractionScore)
}

func TestValidate_RequiresCategoryAndTextContentUnlessBroken(t *testing.T) {
	job := &Job{}
	assert.ElementsMatch(t, []string{"category", "text_content"}, Validate(job))

	job.Category = "loops"
	job.Broken = true
	assert.Empty(t, Validate(job))

	job.Broken = false
	job.TextContent = "all good"
	assert.Empty(t, Validate(job))
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, StageTest.IsTerminal())
	assert.True(t, StageAdvisory.IsTerminal())
	assert.True(t, StageDelivery.IsTerminal())
}
