package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"profscreen/internal/language"
	"profscreen/internal/logging"
	"profscreen/internal/media/wav"
	"profscreen/internal/segment"
	"profscreen/internal/services"
)

// TranscriptionError reports an engine failure for one segment.
type TranscriptionError struct {
	Segment segment.Segment
	Err     error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("%s: segment %s: %v", services.ErrTranscription, e.Segment.Label(), e.Err)
}

// Unwrap exposes both services.ErrTranscription and the engine error.
func (e *TranscriptionError) Unwrap() []error {
	return []error{services.ErrTranscription, e.Err}
}

// Options configures an Adapter.
type Options struct {
	// WorkDir receives the temporary per-segment clips.
	WorkDir string
	// Timeout bounds one engine call. Zero disables the limit.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Adapter transcribes individual segments through an Engine.
type Adapter struct {
	engine  Engine
	workDir string
	timeout time.Duration
	logger  *slog.Logger
}

// NewAdapter wraps engine. An empty WorkDir defaults to the system temp
// directory.
func NewAdapter(engine Engine, opts Options) *Adapter {
	workDir := opts.WorkDir
	if strings.TrimSpace(workDir) == "" {
		workDir = os.TempDir()
	}
	return &Adapter{
		engine:  engine,
		workDir: workDir,
		timeout: opts.Timeout,
		logger:  logging.NewComponentLogger(opts.Logger, "transcribe"),
	}
}

// EngineName returns the name of the wrapped engine.
func (a *Adapter) EngineName() string {
	if a.engine == nil {
		return ""
	}
	return a.engine.Name()
}

// Transcribe returns the trimmed text spoken in audio, which covers seg.
// Silence or unintelligible audio yields "". Engine failures are returned as
// *TranscriptionError; cancellation of ctx is returned as ctx.Err().
func (a *Adapter) Transcribe(ctx context.Context, seg segment.Segment, audio *wav.Stream, lang string) (string, error) {
	code, ok := language.Resolve(lang)
	if !ok {
		return "", services.Wrap(services.ErrInvalidConfiguration, "transcribing", "language",
			fmt.Sprintf("unsupported language %q (supported: %s)", lang, strings.Join(language.Supported(), ", ")), nil)
	}
	if a.engine == nil {
		return "", &TranscriptionError{Segment: seg, Err: errors.New("no transcription engine")}
	}
	if audio.Frames() == 0 {
		return "", nil
	}

	clip := filepath.Join(a.workDir, fmt.Sprintf("segment-%05d.wav", seg.Index))
	if err := wav.WriteFile(clip, audio); err != nil {
		return "", &TranscriptionError{Segment: seg, Err: fmt.Errorf("write clip: %w", err)}
	}
	defer func() {
		if err := os.Remove(clip); err != nil && !errors.Is(err, os.ErrNotExist) {
			a.logger.Debug("clip cleanup failed", logging.String("clip", clip), logging.Error(err))
		}
	}()

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	started := time.Now()
	text, err := a.engine.Transcribe(callCtx, clip, code)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("timed out after %s: %w", a.timeout, err)
		}
		return "", &TranscriptionError{Segment: seg, Err: err}
	}
	text = strings.TrimSpace(text)
	a.logger.Debug("segment transcribed",
		logging.String(logging.FieldSegment, seg.Label()),
		logging.Int("chars", len(text)),
		logging.Duration("elapsed", time.Since(started)),
	)
	return text, nil
}
