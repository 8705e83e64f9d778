// Package lexicon loads profanity word lists and classifies transcribed text
// against them.
//
// A Lexicon is an immutable set of normalized terms (trimmed, NFC, lowercased
// for the run language). Classification is literal whole-word matching: a term
// matches when it is delimited by non-word characters or the ends of the text,
// so adjacent punctuation never blocks a match and a term embedded in a longer
// word never produces one.
package lexicon
