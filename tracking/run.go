package tracking

import (
	"bytes"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"github.com/YuminosukeSato/regpipe/core/model"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusRunning  Status = "RUNNING"
	StatusFinished Status = "FINISHED"
	StatusFailed   Status = "FAILED"
)

// ModelArtifact is the artifact name LogModel writes to.
const ModelArtifact = "model.json"

// RunRecord is the persisted state of a run.
type RunRecord struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Status    Status             `json:"status"`
	StartTime time.Time          `json:"start_time"`
	EndTime   time.Time          `json:"end_time,omitempty"`
	Params    map[string]string  `json:"params"`
	Metrics   map[string]float64 `json:"metrics"`
	Artifacts []string           `json:"artifacts"`
}

// Run is an open run. Every Log call is committed immediately.
type Run struct {
	store *Store
	mu    sync.Mutex
	rec   RunRecord
}

// StartRun creates a run in the RUNNING state.
func (s *Store) StartRun(name string) (*Run, error) {
	r := &Run{
		store: s,
		rec: RunRecord{
			ID:        uuid.NewString(),
			Name:      name,
			Status:    StatusRunning,
			StartTime: s.now().UTC(),
			Params:    map[string]string{},
			Metrics:   map[string]float64{},
		},
	}
	if err := r.save(nil); err != nil {
		return nil, err
	}
	s.logger.Info("run started", log.RunIDKey, r.rec.ID, "run.name", name)
	return r, nil
}

// ID returns the run id.
func (r *Run) ID() string { return r.rec.ID }

// Record returns a copy of the current run state.
func (r *Run) Record() RunRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := r.rec
	rec.Params = maps.Clone(r.rec.Params)
	rec.Metrics = maps.Clone(r.rec.Metrics)
	rec.Artifacts = slices.Clone(r.rec.Artifacts)
	return rec
}

// LogParam records a parameter. Values are stored in their fmt %v form.
func (r *Run) LogParam(key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireOpen("LogParam"); err != nil {
		return err
	}
	r.rec.Params[key] = fmt.Sprint(value)
	return r.save(nil)
}

// LogMetric records a metric, replacing any previous value.
func (r *Run) LogMetric(key string, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireOpen("LogMetric"); err != nil {
		return err
	}
	if err := errors.CheckScalar("Run.LogMetric", value); err != nil {
		return err
	}
	r.rec.Metrics[key] = value
	return r.save(nil)
}

// LogArtifact stores data under name, replacing any previous artifact of the
// same name.
func (r *Run) LogArtifact(name string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireOpen("LogArtifact"); err != nil {
		return err
	}
	if name == "" {
		return errors.NewValueError("Run.LogArtifact", "artifact name is empty")
	}
	if !slices.Contains(r.rec.Artifacts, name) {
		r.rec.Artifacts = append(r.rec.Artifacts, name)
	}
	return r.save(func(txn *badger.Txn) error {
		return txn.Set(artifactKey(r.rec.ID, name), data)
	})
}

// LogModel stores w as the ModelArtifact.
func (r *Run) LogModel(w *model.ModelWeights) error {
	var buf bytes.Buffer
	if err := model.WriteWeights(&buf, w); err != nil {
		return err
	}
	return r.LogArtifact(ModelArtifact, buf.Bytes())
}

// End closes the run with status. Ending a run twice is an error.
func (r *Run) End(status Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.requireOpen("End"); err != nil {
		return err
	}
	if status != StatusFinished && status != StatusFailed {
		return errors.NewValueErrorf("Run.End", "status must be %s or %s, got %s", StatusFinished, StatusFailed, status)
	}
	r.rec.Status = status
	r.rec.EndTime = r.store.now().UTC()
	if err := r.save(nil); err != nil {
		return err
	}
	r.store.logger.Info("run ended", log.RunIDKey, r.rec.ID, "run.status", string(status))
	return nil
}

func (r *Run) requireOpen(method string) error {
	if r.rec.Status != StatusRunning {
		return errors.NewValueErrorf("Run."+method, "run %s is already %s", r.rec.ID, r.rec.Status)
	}
	return nil
}

// save writes the run record and, when extra is non-nil, its writes in the
// same transaction.
func (r *Run) save(extra func(txn *badger.Txn) error) error {
	return r.store.db.Update(func(txn *badger.Txn) error {
		if extra != nil {
			if err := extra(txn); err != nil {
				return err
			}
		}
		return setJSON(txn, runKey(r.rec.ID), r.rec)
	})
}
