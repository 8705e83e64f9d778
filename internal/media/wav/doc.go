// Package wav decodes and encodes PCM WAV audio on top of beep.
//
// A Stream holds decoded samples in a beep.Buffer. Slice returns a view over
// a millisecond range without copying, and WriteFile encodes any view back
// out as a WAV file so individual segments can be handed to a speech engine.
package wav
