package linear

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestLinearRegression_RecoversWeights(t *testing.T) {
	X, y := createBenchmarkData(500, 3)

	lr := NewLinearRegression(WithFeatureNames([]string{"a", "b", "c"}))
	if err := lr.Fit(X, y); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	want := []float64{0.5, 1.0, 1.5}
	for j, w := range lr.Coefficients() {
		if math.Abs(w-want[j]) > 0.01 {
			t.Errorf("coef[%d] = %v, want ≈ %v", j, w, want[j])
		}
	}
	if math.Abs(lr.Intercept()-1.0) > 0.01 {
		t.Errorf("intercept = %v, want ≈ 1", lr.Intercept())
	}

	score, err := lr.Score(X, y)
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if score < 0.99 || score > 1 {
		t.Errorf("R² = %v, want in [0.99, 1]", score)
	}
}

func TestLinearRegression_Parallel(t *testing.T) {
	X, y := createBenchmarkData(3000, 4)

	seq := NewLinearRegression(WithParallelThreshold(1 << 30))
	par := NewLinearRegression(WithParallelThreshold(10))
	if err := seq.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if err := par.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	for j := range seq.Coefficients() {
		if math.Abs(seq.Coefficients()[j]-par.Coefficients()[j]) > 1e-9 {
			t.Errorf("coef[%d] differs: %v vs %v", j, seq.Coefficients()[j], par.Coefficients()[j])
		}
	}
}

func TestLinearRegression_NoIntercept(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{2, 4, 6, 8})

	lr := NewLinearRegression(WithFitIntercept(false))
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}
	if lr.Intercept() != 0 {
		t.Errorf("intercept = %v, want 0", lr.Intercept())
	}
	if math.Abs(lr.Coefficients()[0]-2) > 1e-9 {
		t.Errorf("coef = %v, want 2", lr.Coefficients()[0])
	}
}

func TestLinearRegression_Errors(t *testing.T) {
	t.Run("singular", func(t *testing.T) {
		// 2列目が1列目の定数倍
		X := mat.NewDense(4, 2, []float64{1, 2, 2, 4, 3, 6, 4, 8})
		y := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
		err := NewLinearRegression().Fit(X, y)
		if !errors.Is(err, errors.ErrSingularMatrix) {
			t.Errorf("expected ErrSingularMatrix, got %v", err)
		}
	})

	t.Run("row mismatch", func(t *testing.T) {
		X := mat.NewDense(3, 1, []float64{1, 2, 3})
		y := mat.NewDense(2, 1, []float64{1, 2})
		var dimErr *errors.DimensionError
		if err := NewLinearRegression().Fit(X, y); !errors.As(err, &dimErr) {
			t.Errorf("expected DimensionError, got %v", err)
		}
	})

	t.Run("nan input", func(t *testing.T) {
		X := mat.NewDense(3, 1, []float64{1, math.NaN(), 3})
		y := mat.NewDense(3, 1, []float64{1, 2, 3})
		var numErr *errors.NumericalInstabilityError
		if err := NewLinearRegression().Fit(X, y); !errors.As(err, &numErr) {
			t.Errorf("expected NumericalInstabilityError, got %v", err)
		}
	})

	t.Run("predict before fit", func(t *testing.T) {
		var nf *errors.NotFittedError
		if _, err := NewLinearRegression().Predict(mat.NewDense(1, 1, nil)); !errors.As(err, &nf) {
			t.Errorf("expected NotFittedError, got %v", err)
		}
	})

	t.Run("predict wrong width", func(t *testing.T) {
		X, y := createBenchmarkData(50, 2)
		lr := NewLinearRegression()
		if err := lr.Fit(X, y); err != nil {
			t.Fatal(err)
		}
		var dimErr *errors.DimensionError
		if _, err := lr.Predict(mat.NewDense(1, 3, nil)); !errors.As(err, &dimErr) {
			t.Errorf("expected DimensionError, got %v", err)
		}
	})
}

func TestLinearRegression_WeightsRoundTrip(t *testing.T) {
	X, y := createBenchmarkData(200, 2)
	lr := NewLinearRegression(WithFeatureNames([]string{"x0", "x1"}))
	if err := lr.Fit(X, y); err != nil {
		t.Fatal(err)
	}

	w, err := lr.ExportWeights()
	if err != nil {
		t.Fatalf("ExportWeights: %v", err)
	}
	if w.Features[1] != "x1" || len(w.Coefficients) != 2 {
		t.Errorf("unexpected weights: %+v", w)
	}

	restored, err := FromWeights(w)
	if err != nil {
		t.Fatalf("FromWeights: %v", err)
	}
	p1, _ := lr.Predict(X)
	p2, err := restored.Predict(X)
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !mat.EqualApprox(p1, p2, 1e-12) {
		t.Error("restored model predicts differently")
	}
}
