// Package transcribe turns audio segments into text.
//
// An Engine recognizes speech in a WAV clip on disk. The Adapter owns the
// per-segment mechanics: it writes the segment's PCM as a temporary clip,
// applies the optional per-segment timeout, calls the engine, trims the
// result, and removes the clip before returning. Engine failures surface as
// *TranscriptionError values that carry the failing segment.
//
// Engines are expensive to construct, so callers obtain one through a
// Provider, which builds it once on first use and tears it down on Close.
package transcribe
