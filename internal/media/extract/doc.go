// Package extract pulls the dialogue audio track out of a media container.
//
// The Extractor probes the source with ffprobe, picks the audio track for the
// run language, and has ffmpeg write it as mono 16 kHz 16-bit PCM WAV. Inputs
// without audio and decoder failures surface as services.ErrMediaDecode.
package extract
