package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	"profscreen/internal/logging"
	"profscreen/internal/media/audio"
	"profscreen/internal/media/ffprobe"
	"profscreen/internal/services"
)

// CommandRunner executes an external tool.
type CommandRunner func(ctx context.Context, name string, args ...string) error

// Result describes a completed extraction.
type Result struct {
	Source    string
	Dest      string
	Selection audio.Selection
	// Duration is the container duration reported by ffprobe.
	Duration time.Duration
}

// Extractor converts media files to speech-ready WAV audio.
type Extractor struct {
	ffmpegBinary  string
	ffprobeBinary string
	logger        *slog.Logger
	commandRunner CommandRunner
	probeRunner   ffprobe.Runner
}

// New creates an Extractor using the given tool binaries.
func New(ffmpegBinary, ffprobeBinary string, logger *slog.Logger) *Extractor {
	if strings.TrimSpace(ffmpegBinary) == "" {
		ffmpegBinary = "ffmpeg"
	}
	if strings.TrimSpace(ffprobeBinary) == "" {
		ffprobeBinary = "ffprobe"
	}
	return &Extractor{
		ffmpegBinary:  ffmpegBinary,
		ffprobeBinary: ffprobeBinary,
		logger:        logging.NewComponentLogger(logger, "extract"),
	}
}

// WithCommandRunner sets a custom ffmpeg runner (for testing).
func (e *Extractor) WithCommandRunner(runner CommandRunner) {
	e.commandRunner = runner
}

// WithProbeRunner sets a custom ffprobe runner (for testing).
func (e *Extractor) WithProbeRunner(runner ffprobe.Runner) {
	e.probeRunner = runner
}

// Extract writes the dialogue track of source to dest as mono 16 kHz PCM WAV.
// Deleting dest is the caller's responsibility.
func (e *Extractor) Extract(ctx context.Context, source, dest, lang string) (Result, error) {
	result := Result{Source: source, Dest: dest}

	probe, err := ffprobe.InspectWith(ctx, e.probeRunner, e.ffprobeBinary, source)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, services.Wrap(services.ErrMediaDecode, "extracting", "probe", source, err)
	}
	if !probe.HasAudio() {
		return result, services.Wrap(services.ErrMediaDecode, "extracting", "probe",
			fmt.Sprintf("%s: no audio stream", source), nil)
	}

	result.Selection = audio.Select(probe.Streams, lang)
	result.Duration = probe.Duration()
	attrs := []logging.Attr{
		logging.String("source", source),
		logging.String("track", result.Selection.Label()),
		logging.Int("audio_streams", result.Selection.Candidates),
		logging.Duration("duration", result.Duration),
	}
	if !result.Selection.LanguageMatched && result.Selection.Candidates > 1 {
		logging.WarnWithContext(e.logger, "no audio track tagged with run language", "audio_language_unmatched",
			append(attrs,
				logging.String("language", lang),
				logging.String(logging.FieldImpact, "transcribing the default track instead"),
			)...,
		)
	} else {
		e.logger.Debug("audio track selected", logging.Args(attrs...)...)
	}

	args := BuildArgs(source, result.Selection.MapSpec(), dest)
	if err := e.run(ctx, e.ffmpegBinary, args...); err != nil {
		_ = os.Remove(dest)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}
		return result, services.Wrap(services.ErrMediaDecode, "extracting", "ffmpeg", source, err)
	}
	return result, nil
}

func (e *Extractor) run(ctx context.Context, name string, args ...string) error {
	if e.commandRunner != nil {
		return e.commandRunner(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
		}
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// BuildArgs returns the ffmpeg arguments that decode the mapped stream of
// source to mono 16 kHz s16le WAV at dest.
func BuildArgs(source, mapSpec, dest string) []string {
	return []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", source,
		"-map", mapSpec,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", "16000",
		"-c:a", "pcm_s16le",
		dest,
	}
}
