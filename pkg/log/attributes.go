package log

// Pipeline context.
const (
	// RunIDKey identifies one orchestrator run (also the tracking run id).
	RunIDKey = "run.id"

	// StageKey is the pipeline stage: ingest, clean, transform, split, train, evaluate.
	StageKey = "pipeline.stage"

	// StrategyKey names the strategy a context delegated to,
	// e.g. "FillStrategy" or "OutlierDetector[iqr]".
	StrategyKey = "pipeline.strategy"

	// MethodKey is the method argument passed to a strategy (mean, cap, ...).
	MethodKey = "pipeline.method"

	// ComponentKey identifies which package emitted the record.
	ComponentKey = "component"

	// OperationKey is a fine grained operation name such as "fit" or "transform".
	OperationKey = "operation"
)

// Data shape.
const (
	RowsKey     = "data.rows"
	ColumnsKey  = "data.columns"
	FeaturesKey = "data.features"
	NullsKey    = "data.nulls"
	OutliersKey = "data.outliers"
	SourceKey   = "data.source"

	// FingerprintKey is the xxhash digest of a dataset.
	FingerprintKey = "data.fingerprint"
)

// Results and timing.
const (
	DurationMsKey = "perf.duration_ms"
	MSEKey        = "metrics.mse"
	R2ScoreKey    = "metrics.r2_score"
	MetricKey     = "metrics.name"
	ValueKey      = "metrics.value"
)

// Error context.
const (
	ErrorTypeKey = "error.type"
)

// Standard values.
const (
	StageIngest    = "ingest"
	StageClean     = "clean"
	StageTransform = "transform"
	StageSplit     = "split"
	StageTrain     = "train"
	StageEvaluate  = "evaluate"

	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
)
