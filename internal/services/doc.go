// Package services defines shared utilities consumed by the pipeline stages
// and the external engine integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, stage names, segment ranges, and
//     correlation identifiers for logging.
//   - The error taxonomy (input, decode, configuration, transcription,
//     permission, write) plus the Wrap helper that tags failures so the CLI
//     and history store can classify them.
//
// Use these helpers when wiring new stage logic so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
