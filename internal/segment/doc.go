// Package segment partitions an audio timeline into fixed-length windows.
//
// Split yields a lazy, restartable sequence of half-open millisecond ranges
// that exactly cover [0, duration). Every window is full-length except
// possibly the last, which is never empty.
package segment
