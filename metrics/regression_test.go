package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func vec(v ...float64) *mat.VecDense {
	return mat.NewVecDense(len(v), v)
}

func TestVectorMetrics(t *testing.T) {
	type metricFunc func(yTrue, yPred *mat.VecDense) (float64, error)

	tests := []struct {
		name    string
		fn      metricFunc
		yTrue   *mat.VecDense
		yPred   *mat.VecDense
		want    float64
		wantErr bool
	}{
		{name: "MSE perfect", fn: MSE, yTrue: vec(1, 2, 3), yPred: vec(1, 2, 3), want: 0},
		// ((0.5)^2 * 4) / 4
		{name: "MSE simple", fn: MSE, yTrue: vec(1, 2, 3, 4), yPred: vec(1.5, 2.5, 2.5, 3.5), want: 0.25},
		{name: "MSE larger errors", fn: MSE, yTrue: vec(10, 20, 30), yPred: vec(12, 18, 33), want: 17.0 / 3.0},
		{name: "MSE dimension mismatch", fn: MSE, yTrue: vec(1, 2, 3), yPred: vec(1, 2), wantErr: true},
		{name: "MSE empty", fn: MSE, yTrue: &mat.VecDense{}, yPred: &mat.VecDense{}, wantErr: true},

		{name: "RMSE", fn: RMSE, yTrue: vec(10, 20, 30), yPred: vec(12, 18, 33), want: math.Sqrt(17.0 / 3.0)},
		{name: "MAE", fn: MAE, yTrue: vec(1, 2, 3, 4), yPred: vec(2, 2, 2, 2), want: 1},

		{name: "R2 perfect", fn: R2Score, yTrue: vec(1, 2, 3, 4, 5), yPred: vec(1, 2, 3, 4, 5), want: 1},
		// 平均予測より悪い場合は負になる
		{name: "R2 worse than mean", fn: R2Score, yTrue: vec(1, 2, 3, 4), yPred: vec(4, 3, 2, 1), want: -3},
		{name: "R2 no variance", fn: R2Score, yTrue: vec(3, 3, 3), yPred: vec(2, 3, 4), wantErr: true},

		// 一定のバイアスは説明分散に影響しない
		{name: "explained variance bias", fn: ExplainedVarianceScore, yTrue: vec(1, 2, 3, 4), yPred: vec(2, 3, 4, 5), want: 1},
		{name: "explained variance no variance", fn: ExplainedVarianceScore, yTrue: vec(1, 1), yPred: vec(1, 2), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(tt.yTrue, tt.yPred)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestColumnVector(t *testing.T) {
	got, err := ColumnVector("test", mat.NewDense(3, 1, []float64{1, 2, 3}))
	if err != nil {
		t.Fatalf("ColumnVector: %v", err)
	}
	if got.Len() != 3 || got.AtVec(2) != 3 {
		t.Errorf("ColumnVector() = %v", mat.Formatted(got.T()))
	}

	wide := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	if _, err := ColumnVector("test", wide); err == nil {
		t.Error("expected error for multi-column input")
	}
}

func BenchmarkMSE(b *testing.B) {
	size := 10000
	yTrue := mat.NewVecDense(size, nil)
	yPred := mat.NewVecDense(size, nil)
	for i := 0; i < size; i++ {
		yTrue.SetVec(i, float64(i))
		yPred.SetVec(i, float64(i)+0.1*float64(i%10))
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = MSE(yTrue, yPred)
	}
}
