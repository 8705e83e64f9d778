package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"profscreen/internal/config"
	"profscreen/internal/deps"
	"profscreen/internal/history"
	"profscreen/internal/language"
	"profscreen/internal/lexicon"
	"profscreen/internal/report"
	"profscreen/internal/services/openai"
)

// CheckOpenAI verifies that the transcription API is reachable and the key is
// valid. It uses a 30-second timeout and a single attempt.
func CheckOpenAI(ctx context.Context, cfg config.OpenAI) Result {
	const name = "OpenAI API"
	if cfg.APIKey == "" {
		return Result{Name: name, Detail: "API key missing (set OPENAI_API_KEY)"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := openai.New(openai.Config{
		APIKey:  cfg.APIKey,
		BaseURL: cfg.BaseURL,
		Model:   cfg.Model,
		Timeout: 30 * time.Second,
	})
	defer client.Close()

	if err := client.HealthCheck(checkCtx); err != nil {
		return Result{Name: name, Detail: summarizeAPIError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("API reachable (model %s)", client.Model())}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckOutputPath verifies that the report destination can be created.
func CheckOutputPath(path string) Result {
	const name = "Report destination"
	if path == "" {
		return Result{Name: name, Detail: "not configured"}
	}
	if err := report.CheckWritable(path); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (writable)", path)}
}

// CheckLexicon loads the lexicon the way a run would.
func CheckLexicon(path, lang string) Result {
	const name = "Lexicon"
	code, _ := language.Resolve(lang)
	lex, result, err := lexicon.Load(path, language.Tag(code), nil)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	if result.Missing {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist; no segment would be flagged)", path)}
	}
	detail := fmt.Sprintf("%s (%d terms", path, lex.Len())
	if result.Skipped > 0 {
		detail += fmt.Sprintf(", %d rows skipped", result.Skipped)
	}
	return Result{Name: name, Passed: true, Detail: detail + ")"}
}

// CheckHistory opens the run history database, creating it when absent.
func CheckHistory(ctx context.Context, path string) Result {
	const name = "Run history"
	store, err := history.Open(path)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	defer store.Close()
	runs, err := store.List(ctx, 0)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d runs)", path, len(runs))}
}

// CheckEngine evaluates the configured transcription engine. The WhisperX
// engine runs locally and is covered by CheckSystemDeps.
func CheckEngine(ctx context.Context, cfg *config.Config) Result {
	switch cfg.Transcription.Engine {
	case config.EngineOpenAI:
		return CheckOpenAI(ctx, cfg.OpenAI)
	case config.EngineWhisperX:
		device := "cpu"
		if cfg.WhisperX.CUDAEnabled {
			device = "cuda"
		}
		return Result{
			Name:   "WhisperX",
			Passed: true,
			Detail: fmt.Sprintf("model %s on %s via %s", cfg.WhisperX.Model, device, cfg.UVXBinary()),
		}
	default:
		return Result{Name: "Transcription engine", Detail: fmt.Sprintf("unknown engine %q", cfg.Transcription.Engine)}
	}
}

// CheckSystemDeps evaluates the external binaries required by cfg. Both
// "scan" and "doctor" use this so the requirements list lives in one place.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.FFmpegBinary(),
			Description: "Required for audio extraction",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Required for audio track selection",
		},
		{
			Name:        "uvx",
			Command:     cfg.UVXBinary(),
			Description: "Required for WhisperX-driven transcription",
			Optional:    cfg.Transcription.Engine != config.EngineWhisperX,
		},
	}
	return deps.CheckBinaries(requirements)
}

// summarizeAPIError produces a human-readable summary for API health check failures.
func summarizeAPIError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "health check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (API unreachable)"
	}
	return err.Error()
}
