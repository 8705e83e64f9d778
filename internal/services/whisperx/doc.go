// Package whisperx runs WhisperX speech recognition on short audio clips.
//
// WhisperX is launched through uvx so no Python environment has to be
// managed by hand. Each call writes a JSON transcript next to the clip,
// which is parsed, joined into plain text, and removed again.
package whisperx
