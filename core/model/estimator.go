// Package model defines the interfaces shared by regpipe's estimators and
// transformers, the fitted-state bookkeeping they embed, and the portable
// weight format used to persist trained models.
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is implemented by models that can compute R² on held-out data.
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor is the opaque trained-model handle passed from the training
// step to evaluation and tracking.
type Regressor interface {
	Fitter
	Predictor
	Scorer

	// IsFitted reports whether Fit has completed successfully.
	IsFitted() bool

	// ExportWeights returns a serialisable copy of the learned parameters.
	ExportWeights() (*ModelWeights, error)
}

// Transformer はデータ変換のインターフェース
type Transformer interface {
	// Fit は変換に必要なパラメータを学習する
	Fit(X mat.Matrix) error

	// Transform はデータを変換する
	Transform(X mat.Matrix) (mat.Matrix, error)

	// FitTransform はFitとTransformを同時に実行する
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}
