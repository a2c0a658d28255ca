package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/dawgym/pipeline/internal/models"
)

func newTestStepQueue(t *testing.T) *StepQueue {
	t.Helper()
	sq := NewStepQueue(arbor.NewLogger())
	t.Cleanup(func() { sq.Clear() })
	return sq
}

func TestStepQueue_TakeNormalPicksLongestQueue(t *testing.T) {
	sq := newTestStepQueue(t)

	require.NoError(t, sq.Enqueue(models.StageExtract, models.NewJob(1, 1, "c", "/tmp/a"), 5))
	require.NoError(t, sq.Enqueue(models.StageCompile, models.NewJob(2, 1, "c", "/tmp/b"), 5))
	require.NoError(t, sq.Enqueue(models.StageCompile, models.NewJob(3, 1, "c", "/tmp/c"), 5))

	stage, job, ok := sq.TakeNormal()
	assert.True(t, ok)
	assert.Equal(t, models.StageCompile, stage)
	assert.Equal(t, 2, job.ExerciseID)
}

func TestStepQueue_TakeNormalTiesBreakByLowestIndex(t *testing.T) {
	sq := newTestStepQueue(t)

	require.NoError(t, sq.Enqueue(models.StageCompile, models.NewJob(1, 1, "c", "/tmp/a"), 5))
	require.NoError(t, sq.Enqueue(models.StageExtract, models.NewJob(2, 1, "c", "/tmp/b"), 5))

	stage, _, ok := sq.TakeNormal()
	assert.True(t, ok)
	assert.Equal(t, models.StageExtract, stage)
}

func TestStepQueue_TerminalStagesIsolatedFromNormalPool(t *testing.T) {
	sq := newTestStepQueue(t)

	require.NoError(t, sq.Enqueue(models.StageAdvisory, models.NewJob(1, 1, "c", "/tmp/a"), 5))
	require.NoError(t, sq.Enqueue(models.StageDelivery, models.NewJob(2, 1, "c", "/tmp/b"), 5))

	_, _, ok := sq.TakeNormal()
	assert.False(t, ok, "normal pool must never see terminal-stage jobs")

	job, ok := sq.TakeTerminal(models.StageAdvisory)
	assert.True(t, ok)
	assert.Equal(t, 1, job.ExerciseID)

	_, ok = sq.TakeTerminal(models.StageAdvisory)
	assert.False(t, ok)
}

func TestStepQueue_PauseNormalBlocksTakeNormal(t *testing.T) {
	sq := newTestStepQueue(t)
	require.NoError(t, sq.Enqueue(models.StageExtract, models.NewJob(1, 1, "c", "/tmp/a"), 5))

	sq.PauseNormal(true)
	_, _, ok := sq.TakeNormal()
	assert.False(t, ok)

	sq.PauseNormal(false)
	_, _, ok = sq.TakeNormal()
	assert.True(t, ok)
}

func TestStepQueue_EnqueueClearsRelevantPauseFlag(t *testing.T) {
	sq := newTestStepQueue(t)
	sq.PauseNormal(true)
	require.NoError(t, sq.Enqueue(models.StageExtract, models.NewJob(1, 1, "c", "/tmp/a"), 5))
	assert.False(t, sq.IsPausedNormal())
}

func TestStepQueue_SnapshotRoundTrip(t *testing.T) {
	sq := newTestStepQueue(t)
	job := models.NewJob(42, 7, "loops", "/tmp/workspace")
	require.NoError(t, sq.Enqueue(models.StageTest, job, 3))
	require.NoError(t, sq.Snapshot())

	restored := NewStepQueue(arbor.NewLogger())
	t.Cleanup(func() { restored.Clear() })

	stage, got, ok := restored.TakeNormal()
	require.True(t, ok)
	assert.Equal(t, models.StageTest, stage)
	assert.Equal(t, job.ExerciseID, got.ExerciseID)
	assert.Equal(t, job.Category, got.Category)
}

func TestStepQueue_TakeNormalSetsPauseWhenAllEmpty(t *testing.T) {
	sq := newTestStepQueue(t)

	_, _, ok := sq.TakeNormal()

	assert.False(t, ok)
	assert.True(t, sq.IsPausedNormal())
}

func TestStepQueue_TakeTerminalSetsPauseAdvisoryWhenEmpty(t *testing.T) {
	sq := newTestStepQueue(t)

	_, ok := sq.TakeTerminal(models.StageAdvisory)

	assert.False(t, ok)
	assert.True(t, sq.IsPausedAdvisory())
}

func TestStepQueue_TakeTerminalDeliveryNeverSetsPauseAdvisory(t *testing.T) {
	sq := newTestStepQueue(t)

	_, ok := sq.TakeTerminal(models.StageDelivery)

	assert.False(t, ok)
	assert.False(t, sq.IsPausedAdvisory())
}

func TestStepQueue_EnqueueRejectsOutOfRangeStage(t *testing.T) {
	sq := newTestStepQueue(t)
	err := sq.Enqueue(models.Stage(99), models.NewJob(1, 1, "c", "/tmp/a"), 5)
	assert.Error(t, err)
}
