// Package regpipe is a linear regression training pipeline for tabular data.
//
// Every stage of the pipeline is a small strategy object selected at
// runtime: missing value handling, outlier detection, feature engineering,
// train/test splitting, model training and evaluation. Stages are plugged
// into a shared context type, so a configuration file can swap one method
// for another without touching the rest of the flow.
//
// # Quick Start
//
// Train on a CSV file from the command line:
//
//	regpipe train --data houses.csv --target price
//	regpipe runs list
//	regpipe models list
//
// Or drive the pipeline from Go:
//
//	cfg := config.Default()
//	cfg.Target = "price"
//	p, err := pipeline.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := p.Run(ctx, "houses.csv")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	mse, _ := out.Metrics.Get(evaluate.DefaultMSEKey)
//
// # Packages
//
//   - dataset: Arrow-backed columnar tables with null masks
//   - ingest: CSV ingestion
//   - missing: drop and fill strategies for nulls
//   - outlier: z-score and IQR detection, removal and capping
//   - features: log, scaling and encoding transforms with fit/transform separation
//   - split: seeded train/test splitting
//   - train, evaluate: linear regression fitting and regression metrics
//   - pipeline: the end-to-end training flow with stage metrics
//   - tracking: Badger-backed run tracking and model registry
//   - config: YAML configuration with validation
//   - strategy: the generic strategy context shared by every stage
//   - linear, preprocessing, metrics, core: numerical building blocks
//
// # Error Handling
//
// Configuration mistakes fail fast with a ConfigError. Unknown method names
// inside a strategy are not fatal: a NoOpWarning is logged and the data is
// returned unchanged.
package regpipe
