// Package language resolves transcription language selections.
//
// Transcription supports a closed set of languages (English, Spanish, German).
// Codes, three-letter forms, full names, and the numbered menu choices shown
// by the interactive prompt all resolve to an ISO 639-1 code, with English as
// the fallback for anything unrecognized. The package also maps codes to
// x/text language tags for locale-aware case folding.
package language
