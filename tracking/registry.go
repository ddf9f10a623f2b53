package tracking

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/YuminosukeSato/regpipe/core/model"
	"github.com/YuminosukeSato/regpipe/linear"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
)

// ModelVersion is one registered version of a named model.
type ModelVersion struct {
	Name      string    `json:"name"`
	Version   int       `json:"version"`
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`
}

// maxRegisterAttempts bounds the retries of a registration that lost a
// write conflict on the version counter.
const maxRegisterAttempts = 16

// RegisterModel registers the model logged by run runID as the next version
// of name. Versions start at 1 and are unique per name even under
// concurrent registration.
func (s *Store) RegisterModel(name, runID string) (ModelVersion, error) {
	if name == "" || strings.Contains(name, "/") {
		return ModelVersion{}, errors.NewValueErrorf("Store.RegisterModel", "invalid model name %q", name)
	}

	var (
		mv  ModelVersion
		err error
	)
	for attempt := 0; attempt < maxRegisterAttempts; attempt++ {
		err = s.db.Update(func(txn *badger.Txn) error {
			var e error
			mv, e = s.registerModel(txn, name, runID)
			return e
		})
		if !errors.Is(err, badger.ErrConflict) {
			break
		}
		s.logger.Debug("model registration conflicted; retrying", "model.name", name, "attempt", attempt+1)
	}
	if err != nil {
		return ModelVersion{}, err
	}
	s.logger.Info("model registered", "model.name", name, "model.version", mv.Version, log.RunIDKey, runID)
	return mv, nil
}

// registerModel bumps the modelseq/<name> counter inside txn. Reading the
// counter puts it in the transaction's read set, so two registrations of
// the same name cannot both commit the same version.
func (s *Store) registerModel(txn *badger.Txn, name, runID string) (ModelVersion, error) {
	var rec RunRecord
	if err := getJSON(txn, runKey(runID), &rec); err != nil {
		return ModelVersion{}, err
	}
	if _, err := txn.Get(artifactKey(runID, ModelArtifact)); err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ModelVersion{}, errors.Wrapf(ErrNotFound, "run %s has no logged model", runID)
		}
		return ModelVersion{}, err
	}

	latest := 0
	if err := getJSON(txn, modelSeqKey(name), &latest); err != nil && !errors.Is(err, ErrNotFound) {
		return ModelVersion{}, err
	}
	mv := ModelVersion{Name: name, Version: latest + 1, RunID: runID, CreatedAt: s.now().UTC()}
	if err := setJSON(txn, modelSeqKey(name), mv.Version); err != nil {
		return ModelVersion{}, err
	}
	return mv, setJSON(txn, modelKey(name, mv.Version), mv)
}

// ListModels returns every registered version in key order: by name, then
// by version.
func (s *Store) ListModels() ([]ModelVersion, error) {
	var out []ModelVersion
	err := s.scan([]byte("model/"), func(val []byte) error {
		var mv ModelVersion
		if err := json.Unmarshal(val, &mv); err != nil {
			return err
		}
		out = append(out, mv)
		return nil
	})
	return out, err
}

// LoadModel rebuilds the linear model logged by run runID.
func (s *Store) LoadModel(runID string) (*linear.LinearRegression, error) {
	data, err := s.Artifact(runID, ModelArtifact)
	if err != nil {
		return nil, err
	}
	w, err := model.ReadWeights(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "decode model of run %s", runID)
	}
	return linear.FromWeights(w)
}
