// Package models holds the value objects that travel through the grading
// pipeline: the Job record and the small enums that describe its shape.
package models

import "github.com/google/uuid"

// ProjectKind is the detected build toolchain for a submission.
type ProjectKind string

const (
	// ProjectUnset means detection has not run yet (or could not decide).
	ProjectUnset      ProjectKind = ""
	ProjectAnt        ProjectKind = "ant"
	ProjectMaven      ProjectKind = "maven"
	ProjectSingleFile ProjectKind = "single_file"
)

// Stage is one of the six numbered processing phases of a job.
type Stage int

const (
	StageExtract     Stage = 0
	StageCompile     Stage = 1
	StageTest        Stage = 2
	StagePattern     Stage = 3
	StageAdvisory    Stage = 4
	StageDelivery    Stage = 5
	NStages          Stage = 6
	DefaultPriority        = 5
)

// IsTerminal reports whether s must be drained by a dedicated worker rather
// than the normal stage pool (stages 4 and 5).
func (s Stage) IsTerminal() bool {
	return s >= NStages-2
}

// Job carries per-submission state through the pipeline. It is the unit of
// work the scheduler moves between stage queues.
type Job struct {
	// ID is an internal correlation identifier. It is never sent to the
	// result sink; the public payload is built from the fields below it.
	ID uuid.UUID `json:"-"`

	ExerciseID int    `json:"exercise_id"`
	Category   string `json:"category"`
	UserID     int    `json:"user_id"`

	// WorkspacePath is a scratch directory containing a "{user_id}/"
	// subtree (the submission) and a "job_data/" subtree (stage 0 output).
	WorkspacePath string `json:"workspace_path"`

	ProjectKind ProjectKind `json:"project_kind"`
	EntryFiles  []string    `json:"entry_files,omitempty"`

	// Broken is sticky: once true, no later stage handler may clear it.
	Broken bool `json:"broken"`

	// TextContent is the last-writer-wins user-facing diagnostic.
	TextContent string `json:"text_content"`

	Advisory string `json:"advisory,omitempty"`

	// AbstractionScore is nil until stage 3 runs.
	AbstractionScore *float64 `json:"abstraction_score,omitempty"`
	BannedMatches    []string `json:"banned_matches,omitempty"`
}

// NewJob constructs a Job for a newly ingressed descriptor.
func NewJob(exerciseID, userID int, category, workspacePath string) *Job {
	return &Job{
		ID:            uuid.New(),
		ExerciseID:    exerciseID,
		Category:      category,
		UserID:        userID,
		WorkspacePath: workspacePath,
	}
}

// MarkBroken sets Broken and overwrites TextContent. It never clears Broken;
// callers that want to report a new diagnostic while a job is already
// broken should still call this, Broken stays true either way.
func (j *Job) MarkBroken(text string) {
	j.Broken = true
	j.TextContent = text
}

// Clone returns a deep-enough copy for snapshotting: slices are copied so a
// later in-place mutation of the live Job cannot corrupt a stored snapshot.
func (j *Job) Clone() *Job {
	clone := *j
	if j.EntryFiles != nil {
		clone.EntryFiles = append([]string(nil), j.EntryFiles...)
	}
	if j.BannedMatches != nil {
		clone.BannedMatches = append([]string(nil), j.BannedMatches...)
	}
	if j.AbstractionScore != nil {
		score := *j.AbstractionScore
		clone.AbstractionScore = &score
	}
	return &clone
}

// DeliveryPayload is the defensive, explicit view of a Job sent to the
// result sink.
type DeliveryPayload struct {
	UserID           int         `json:"user_id"`
	ExerciseID       int         `json:"exercise_id"`
	ProjectKind      ProjectKind `json:"project_kind"`
	Category         string      `json:"category"`
	Broken           bool        `json:"broken"`
	TextContent      string      `json:"text_content"`
	Advisory         string      `json:"advisory"`
	AbstractionScore *float64    `json:"abstraction_score"`
	BannedMatches    []string    `json:"banned_matches"`
}

// Validate checks that every field required by the result-sink contract is
// present, returning the names of any that are missing. An empty slice
// means the payload is safe to send.
func Validate(j *Job) []string {
	var missing []string
	if j.Category == "" {
		missing = append(missing, "category")
	}
	if j.TextContent == "" && !j.Broken {
		// a succeeding job always carries an informational text_content;
		// an empty value here on a non-broken job means a stage skipped
		// setting it, a fatal, corrupted-state condition.
		missing = append(missing, "text_content")
	}
	return missing
}

// ToPayload builds the defensive delivery payload for j. Call Validate
// first; ToPayload does not re-check required fields.
func ToPayload(j *Job) DeliveryPayload {
	return DeliveryPayload{
		UserID:           j.UserID,
		ExerciseID:       j.ExerciseID,
		ProjectKind:      j.ProjectKind,
		Category:         j.Category,
		Broken:           j.Broken,
		TextContent:      j.TextContent,
		Advisory:         j.Advisory,
		AbstractionScore: j.AbstractionScore,
		BannedMatches:    j.BannedMatches,
	}
}
