package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputNotFound        = errors.New("input not found")
	ErrMediaDecode          = errors.New("media decode error")
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrTranscription        = errors.New("transcription error")
	ErrPermissionDenied     = errors.New("permission denied")
	ErrWrite                = errors.New("write error")
	ErrExternalTool         = errors.New("external tool error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Kind returns the taxonomy name for err, or "" when err is nil.
// Unclassified errors report as "internal".
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInputNotFound):
		return "InputNotFound"
	case errors.Is(err, ErrMediaDecode):
		return "MediaDecodeError"
	case errors.Is(err, ErrInvalidConfiguration):
		return "InvalidConfiguration"
	case errors.Is(err, ErrTranscription):
		return "TranscriptionError"
	case errors.Is(err, ErrPermissionDenied):
		return "PermissionDenied"
	case errors.Is(err, ErrWrite):
		return "WriteError"
	case errors.Is(err, ErrExternalTool):
		return "ExternalToolError"
	default:
		return "internal"
	}
}

// IsFatal reports whether err invalidates the computed report. Save failures
// leave the transcription work intact and are therefore not fatal.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrPermissionDenied) && !errors.Is(err, ErrWrite)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
