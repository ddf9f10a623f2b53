// Package tracking records training runs, their parameters, metrics and
// artifacts, and a versioned model registry, in an embedded Badger store.
//
// Key layout:
//
//	run/<id>                  JSON RunRecord
//	artifact/<runID>/<name>   raw bytes
//	model/<name>/<version>    JSON ModelVersion (version zero-padded)
//	modelseq/<name>           JSON int, latest registered version
package tracking

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
)

// ErrNotFound is returned when a run, artifact or model does not exist.
var ErrNotFound = errors.New("tracking: not found")

// Config configures Open.
type Config struct {
	// Dir holds the Badger files. Ignored when InMemory is set.
	Dir string
	// InMemory keeps everything in memory; used by tests.
	InMemory bool
	// SyncWrites fsyncs every commit.
	SyncWrites bool
	// Logger receives store and Badger logs. Nil means the global logger.
	Logger log.Logger
}

// Store is a tracking store. It is safe for concurrent use.
type Store struct {
	db     *badger.DB
	logger log.Logger
	now    func() time.Time
}

// badgerLogger adapts log.Logger to badger.Logger. Badger's info chatter is
// demoted to debug.
type badgerLogger struct {
	logger log.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

// Open opens (creating if needed) a tracking store.
func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Dir == "" {
		return nil, errors.NewConfigError("tracking.Open", "dir", "a directory is required unless in-memory")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("tracking")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Dir, 0o750); err != nil {
			return nil, errors.Wrapf(err, "create tracking directory %s", cfg.Dir)
		}
		opts = badger.DefaultOptions(cfg.Dir)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites).
		WithNumVersionsToKeep(1).
		WithLogger(badgerLogger{logger: logger})

	db, err := badger.Open(opts)
	if err != nil {
		return nil, errors.Wrap(err, "open tracking store")
	}
	return &Store{db: db, logger: logger, now: time.Now}, nil
}

// Close flushes and closes the store.
func (s *Store) Close() error {
	return s.db.Close()
}

func runKey(id string) []byte { return []byte("run/" + id) }

func artifactKey(runID, name string) []byte { return []byte("artifact/" + runID + "/" + name) }

func modelPrefix(name string) []byte { return []byte("model/" + name + "/") }

func modelSeqKey(name string) []byte { return []byte("modelseq/" + name) }

func modelKey(name string, version int) []byte {
	return []byte(fmt.Sprintf("model/%s/%08d", name, version))
}

func getJSON(txn *badger.Txn, key []byte, v any) error {
	item, err := txn.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return errors.Wrapf(ErrNotFound, "%s", key)
	}
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, v)
	})
}

func setJSON(txn *badger.Txn, key []byte, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return txn.Set(key, data)
}

// scan decodes every value under prefix with fn.
func (s *Store) scan(prefix []byte, fn func(val []byte) error) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			if err := it.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetRun returns the stored record of run id.
func (s *Store) GetRun(id string) (RunRecord, error) {
	var rec RunRecord
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, runKey(id), &rec)
	})
	return rec, err
}

// ListRuns returns every run, most recently started first.
func (s *Store) ListRuns() ([]RunRecord, error) {
	var runs []RunRecord
	err := s.scan([]byte("run/"), func(val []byte) error {
		var rec RunRecord
		if err := json.Unmarshal(val, &rec); err != nil {
			return err
		}
		runs = append(runs, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(runs, func(i, j int) bool {
		return runs[i].StartTime.After(runs[j].StartTime)
	})
	return runs, nil
}

// Artifact returns the bytes stored as artifact name of run runID.
func (s *Store) Artifact(runID, name string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(artifactKey(runID, name))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return errors.Wrapf(ErrNotFound, "artifact %s of run %s", name, runID)
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	return data, err
}
