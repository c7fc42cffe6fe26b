// Package services defines shared utilities consumed by the pipeline stages
// and their external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, and media identifiers
//     for logging.
//   - Structured error markers plus the Wrap helper that keep failures
//     classifiable (setup vs runtime) after they cross package boundaries.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
