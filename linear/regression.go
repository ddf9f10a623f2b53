// Package linear implements ordinary least squares regression.
package linear

import (
	"github.com/YuminosukeSato/regpipe/core/model"
	"github.com/YuminosukeSato/regpipe/core/parallel"
	"github.com/YuminosukeSato/regpipe/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

const modelType = "LinearRegression"

// LinearRegression は線形回帰モデル
type LinearRegression struct {
	state *model.StateManager

	weights   *mat.VecDense // 重み（係数）
	intercept float64       // 切片

	fitIntercept      bool
	featureNames      []string
	parallelThreshold int
}

var _ model.Regressor = (*LinearRegression)(nil)

// NewLinearRegression は新しい線形回帰モデルを作成する
func NewLinearRegression(opts ...Option) *LinearRegression {
	lr := &LinearRegression{
		state:             model.NewStateManager(),
		fitIntercept:      true,
		parallelThreshold: 1000,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// Fit はモデルを訓練データで学習させる
// 正規方程式 w = (X^T * X)^(-1) * X^T * y を使用
func (lr *LinearRegression) Fit(X, y mat.Matrix) error {
	r, c := X.Dims()
	ry, cy := y.Dims()

	if r == 0 || c == 0 {
		return errors.NewModelError("LinearRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if ry != r {
		return errors.NewDimensionError("LinearRegression.Fit", r, ry, 0)
	}
	if cy != 1 {
		return errors.NewValueError("LinearRegression.Fit", "y must be a column vector")
	}
	if len(lr.featureNames) > 0 && len(lr.featureNames) != c {
		return errors.NewDimensionError("LinearRegression.Fit", len(lr.featureNames), c, 1)
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", X); err != nil {
		return err
	}
	if err := errors.CheckMatrix("LinearRegression.Fit", y); err != nil {
		return err
	}

	offset := 0
	if lr.fitIntercept {
		offset = 1
	}

	// 切片項のために X に 1 の列を追加: [1, X]
	design := mat.NewDense(r, c+offset, nil)
	parallel.ParallelizeWithThreshold(r, lr.parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			if offset == 1 {
				design.Set(i, 0, 1.0)
			}
			for j := 0; j < c; j++ {
				design.Set(i, j+offset, X.At(i, j))
			}
		}
	})

	var XTX mat.Dense
	XTX.Mul(design.T(), design)

	var XTXInv mat.Dense
	if err := XTXInv.Inverse(&XTX); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "singular matrix", errors.ErrSingularMatrix)
	}

	yVec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		yVec.SetVec(i, y.At(i, 0))
	}

	var XTy mat.VecDense
	XTy.MulVec(design.T(), yVec)

	coef := mat.NewVecDense(c+offset, nil)
	coef.MulVec(&XTXInv, &XTy)
	if err := errors.CheckMatrix("LinearRegression.Fit", coef); err != nil {
		return errors.NewModelError("LinearRegression.Fit", "numerical instability", err)
	}

	lr.intercept = 0
	if offset == 1 {
		lr.intercept = coef.AtVec(0)
	}
	lr.weights = mat.NewVecDense(c, nil)
	for i := 0; i < c; i++ {
		lr.weights.SetVec(i, coef.AtVec(i+offset))
	}

	lr.state.SetDimensions(c, r)
	lr.state.SetFitted()
	return nil
}

// Predict は入力データに対する予測を行う
func (lr *LinearRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	if err := lr.state.RequireFitted(modelType, "Predict"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := lr.state.RequireFeatures("LinearRegression.Predict", c); err != nil {
		return nil, err
	}

	// y = X * weights + intercept
	predictions := mat.NewVecDense(r, nil)
	predictions.MulVec(X, lr.weights)
	for i := 0; i < r; i++ {
		predictions.SetVec(i, predictions.AtVec(i)+lr.intercept)
	}
	return predictions, nil
}

// IsFitted reports whether Fit has completed.
func (lr *LinearRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// Coefficients は学習された重み（係数）を返す
func (lr *LinearRegression) Coefficients() []float64 {
	if lr.weights == nil {
		return nil
	}
	return append([]float64(nil), lr.weights.RawVector().Data...)
}

// Intercept は学習された切片を返す
func (lr *LinearRegression) Intercept() float64 {
	if !lr.IsFitted() {
		return 0
	}
	return lr.intercept
}

// FeatureNames returns the names given with WithFeatureNames, if any.
func (lr *LinearRegression) FeatureNames() []string {
	return append([]string(nil), lr.featureNames...)
}

// Score はモデルの決定係数（R²）を計算する
func (lr *LinearRegression) Score(X, y mat.Matrix) (float64, error) {
	if err := lr.state.RequireFitted(modelType, "Score"); err != nil {
		return 0, err
	}

	yPred, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	r, _ := y.Dims()
	var yMean float64
	for i := 0; i < r; i++ {
		yMean += y.At(i, 0)
	}
	yMean /= float64(r)

	// 全変動 (TSS) と残差変動 (RSS)
	var tss, rss float64
	for i := 0; i < r; i++ {
		yTrue := y.At(i, 0)
		tss += (yTrue - yMean) * (yTrue - yMean)
		rss += (yTrue - yPred.At(i, 0)) * (yTrue - yPred.At(i, 0))
	}

	if tss == 0 {
		return 0, errors.NewValueError("LinearRegression.Score", "total sum of squares is zero")
	}
	return 1 - rss/tss, nil
}

// ExportWeights returns the learned parameters in the portable format.
func (lr *LinearRegression) ExportWeights() (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted(modelType, "ExportWeights"); err != nil {
		return nil, err
	}
	_, nSamples := lr.state.GetDimensions()
	return &model.ModelWeights{
		ModelType:    modelType,
		Version:      model.WeightsVersion,
		Coefficients: lr.Coefficients(),
		Intercept:    lr.intercept,
		Features:     lr.FeatureNames(),
		Hyperparameters: map[string]interface{}{
			"fit_intercept": lr.fitIntercept,
		},
		Metadata: map[string]interface{}{
			"n_samples": nSamples,
		},
		IsFitted: true,
	}, nil
}

// FromWeights rebuilds a fitted LinearRegression from exported weights.
func FromWeights(w *model.ModelWeights) (*LinearRegression, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if w.ModelType != modelType {
		return nil, errors.NewValueErrorf("linear.FromWeights", "model_type must be %s, got %s", modelType, w.ModelType)
	}
	if !w.IsFitted {
		return nil, errors.NewNotFittedError(modelType, "FromWeights")
	}

	fitIntercept := true
	if v, ok := w.Hyperparameters["fit_intercept"].(bool); ok {
		fitIntercept = v
	}

	lr := NewLinearRegression(WithFitIntercept(fitIntercept), WithFeatureNames(w.Features))
	lr.weights = mat.NewVecDense(len(w.Coefficients), append([]float64(nil), w.Coefficients...))
	lr.intercept = w.Intercept

	nSamples := 0
	if v, ok := w.Metadata["n_samples"].(float64); ok {
		nSamples = int(v)
	}
	lr.state.SetDimensions(len(w.Coefficients), nSamples)
	lr.state.SetFitted()
	return lr, nil
}
