// Package split partitions a dataset into training and test rows.
package split

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/regpipe/dataset"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"github.com/YuminosukeSato/regpipe/pkg/log"
	"github.com/YuminosukeSato/regpipe/strategy"
)

const (
	DefaultTestSize        = 0.2
	DefaultSeed     uint64 = 42
)

// Result holds the four partitions. X datasets carry every column except the
// target; Y datasets carry only the target.
type Result struct {
	XTrain *dataset.Dataset
	XTest  *dataset.Dataset
	YTrain *dataset.Dataset
	YTest  *dataset.Dataset
}

// Strategy is implemented by TrainTestStrategy.
type Strategy interface {
	Split(ds *dataset.Dataset, target string) (Result, error)
	splitStrategy()
}

// TrainTestStrategy shuffles row indices with a PCG generator seeded by Seed
// and assigns ceil(TestSize·n) of them to the test partition. A zero
// TestSize means DefaultTestSize.
type TrainTestStrategy struct {
	TestSize float64
	Seed     uint64
}

// DefaultTrainTest returns the 0.2 / 42 split.
func DefaultTrainTest() TrainTestStrategy {
	return TrainTestStrategy{TestSize: DefaultTestSize, Seed: DefaultSeed}
}

func (TrainTestStrategy) splitStrategy() {}

// Split implements Strategy.
func (s TrainTestStrategy) Split(ds *dataset.Dataset, target string) (Result, error) {
	const op = "TrainTestStrategy.Split"

	size := s.TestSize
	if size == 0 {
		size = DefaultTestSize
	}
	if !(size > 0 && size < 1) {
		return Result{}, errors.NewConfigError(op, "test_size", "must lie strictly between 0 and 1")
	}
	if ds == nil {
		return Result{}, errors.NewInputTypeError(op, "ds", "a dataset", "nil")
	}
	y, err := ds.Require(op, target)
	if err != nil {
		return Result{}, err
	}
	if y.Kind() != dataset.Numeric {
		return Result{}, errors.NewInputTypeError(op, "target", "a numeric column", "categorical column '"+target+"'")
	}

	n := ds.NumRows()
	nTest := TestRows(n, size)
	if nTest < 1 || nTest >= n {
		return Result{}, errors.NewValueErrorf(op, "cannot split %d rows with test_size %g: both partitions need at least one row", n, size)
	}

	rng := rand.New(rand.NewPCG(s.Seed, s.Seed))
	perm := rng.Perm(n)

	test, err := ds.Take(perm[:nTest])
	if err != nil {
		return Result{}, err
	}
	train, err := ds.Take(perm[nTest:])
	if err != nil {
		return Result{}, err
	}
	return partition(train, test, target)
}

// TestRows returns the number of test rows for n rows at the given size.
func TestRows(n int, size float64) int {
	return int(math.Ceil(size * float64(n)))
}

func partition(train, test *dataset.Dataset, target string) (Result, error) {
	var (
		r   Result
		err error
	)
	if r.XTrain, err = train.Drop(target); err != nil {
		return Result{}, err
	}
	if r.XTest, err = test.Drop(target); err != nil {
		return Result{}, err
	}
	if r.YTrain, err = train.Select(target); err != nil {
		return Result{}, err
	}
	if r.YTest, err = test.Select(target); err != nil {
		return Result{}, err
	}
	return r, nil
}

// Splitter runs the active split Strategy.
type Splitter struct {
	*strategy.Context[Strategy]
	logger log.Logger
}

// NewSplitter creates a Splitter with s active.
func NewSplitter(s Strategy, logger log.Logger) *Splitter {
	if logger == nil {
		logger = log.GetLoggerWithName("split")
	}
	return &Splitter{Context: strategy.New(s), logger: logger}
}

// Split delegates to the active strategy.
func (sp *Splitter) Split(ds *dataset.Dataset, target string) (Result, error) {
	s, err := sp.Strategy()
	if err != nil {
		return Result{}, err
	}
	r, err := s.Split(ds, target)
	if err != nil {
		return Result{}, err
	}
	sp.logger.Info("dataset split",
		log.StrategyKey, sp.Name(),
		"train_rows", r.XTrain.NumRows(),
		"test_rows", r.XTest.NumRows(),
	)
	return r, nil
}
