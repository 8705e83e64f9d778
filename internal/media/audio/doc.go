// Package audio picks the audio track that carries the dialogue to screen.
//
// Candidates are filtered to tracks tagged with the run language (falling
// back to every audio track when none match), commentary and descriptive
// tracks are demoted, and the rest are ranked by default disposition and
// then by container order.
//
// Primary entry point:
//   - Select: analyzes ffprobe streams and returns the chosen track
package audio
