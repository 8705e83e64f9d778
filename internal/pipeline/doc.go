// Package pipeline runs one screening pass over a media file.
//
// A Runner moves through INIT, EXTRACTING, SEGMENTING, TRANSCRIBING,
// ASSEMBLING and SAVING before reaching DONE, or ABORTED on the first fatal
// error. Segments are transcribed strictly in order. The per-run work
// directory is removed on every exit path.
package pipeline
