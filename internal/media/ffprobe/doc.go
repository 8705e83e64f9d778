// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - Stream: individual stream properties, tags and disposition flags
//   - Format: container-level metadata (duration, size, bitrate)
//
// Primary entry points:
//   - Inspect: executes ffprobe and returns parsed Result
//   - Parse: decodes an already captured JSON payload
//
// Helper methods on Result expose audio stream lookup and duration parsing
// used by the extractor to reject inputs without a usable audio track.
package ffprobe
