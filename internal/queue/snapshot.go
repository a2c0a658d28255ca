package queue

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/dawgym/pipeline/internal/models"
)

// snapshotVersion is bumped whenever the on-disk schema changes. restore()
// rejects any other version rather than guessing how to read it.
const snapshotVersion = 1

const snapshotFileName = "queue_snapshot"

// snapshotRow is one queued job as stored on disk. It is a deliberately
// narrow, explicit schema, never a dump of the live Job/PriorityQueue
// object graph.
type snapshotRow struct {
	Priority int         `json:"priority"`
	Seq      int64       `json:"seq"`
	ID       string      `json:"id"`
	Job      models.Job  `json:"job"`
}

type snapshotFile struct {
	Version int             `json:"version"`
	Stages  [][]snapshotRow `json:"stages"`
}

// snapshotDir returns the per-OS temp subfolder the snapshot lives under:
// %TEMP%/DawBotcodingGym on Windows, /tmp/DawBotcodingGym on Linux (and
// other unix-likes, by the same os.TempDir()+subfolder convention).
func snapshotDir() string {
	return filepath.Join(os.TempDir(), "DawBotcodingGym")
}

func snapshotPath() string {
	return filepath.Join(snapshotDir(), snapshotFileName)
}

// snapshot serializes sq's queue contents atomically to disk: write to a
// temp file in the same directory, then os.Rename over the final name, so
// a concurrent reader (a fresh process restarting) never observes a
// partially written file.
func (sq *StepQueue) snapshot() error {
	dir := snapshotDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create dir: %w", err)
	}

	file := snapshotFile{Version: snapshotVersion}
	for _, pq := range sq.stages {
		rows := make([]snapshotRow, 0, pq.Len())
		for _, e := range pq.entries() {
			rows = append(rows, snapshotRow{
				Priority: e.priority,
				Seq:      e.seq,
				ID:       e.job.ID.String(),
				Job:      *e.job.Clone(),
			})
		}
		file.Stages = append(file.Stages, rows)
	}

	data, err := json.Marshal(file)
	if err != nil {
		return fmt.Errorf("snapshot: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(dir, snapshotFileName+".tmp-*")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("snapshot: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("snapshot: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, snapshotPath()); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("snapshot: replace: %w", err)
	}
	return nil
}

// restore loads a previously written snapshot into sq. It never fails
// construction: a missing or corrupt file is logged and the queues stay
// empty.
func (sq *StepQueue) restore() {
	data, err := os.ReadFile(snapshotPath())
	if err != nil {
		if !os.IsNotExist(err) {
			sq.logger.Warn().Err(err).Msg("stepqueue: could not read snapshot, starting empty")
		}
		return
	}

	var file snapshotFile
	if err := json.Unmarshal(data, &file); err != nil {
		sq.logger.Warn().Err(err).Msg("stepqueue: corrupt snapshot, starting empty")
		return
	}
	if file.Version != snapshotVersion {
		sq.logger.Warn().Int("version", file.Version).Msg("stepqueue: unknown snapshot version, starting empty")
		return
	}
	if len(file.Stages) != int(models.NStages) {
		sq.logger.Warn().Int("stages", len(file.Stages)).Msg("stepqueue: snapshot stage count mismatch, starting empty")
		return
	}

	var maxSeq int64 = -1
	for i, rows := range file.Stages {
		for _, row := range rows {
			job := row.Job
			if id, err := uuid.Parse(row.ID); err == nil {
				job.ID = id
			} else {
				job.ID = uuid.New()
			}
			jobCopy := job
			sq.stages[i].h = append(sq.stages[i].h, &entry{priority: row.Priority, seq: row.Seq, job: &jobCopy})
			if row.Seq > maxSeq {
				maxSeq = row.Seq
			}
		}
		heapifyStage(sq.stages[i])
	}

	for _, pq := range sq.stages {
		if pq.nextSeq <= maxSeq {
			pq.nextSeq = maxSeq + 1
		}
	}

	sq.logger.Info().Msg("stepqueue: restored snapshot")
}

// clear deletes the snapshot file; it does not touch in-memory queues.
func (sq *StepQueue) clear() error {
	err := os.Remove(snapshotPath())
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clear snapshot: %w", err)
	}
	return nil
}
