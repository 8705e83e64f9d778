package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"profscreen/internal/config"
	"profscreen/internal/media/extract"
	"profscreen/internal/media/wav"
	"profscreen/internal/pipeline"
	"profscreen/internal/testsupport"
	"profscreen/internal/transcribe"
)

type stubExtractor struct {
	durationMs int64
}

func (s stubExtractor) Extract(_ context.Context, source, dest, _ string) (extract.Result, error) {
	silence := wav.Silence(wav.SpeechFormat, s.durationMs)
	if err := wav.WriteFile(dest, silence); err != nil {
		return extract.Result{}, err
	}
	return extract.Result{Source: source, Dest: dest}, nil
}

type stubEngine struct {
	mu    sync.Mutex
	texts []string
	calls int
}

func (e *stubEngine) Name() string { return "stub" }

func (e *stubEngine) Close() error { return nil }

func (e *stubEngine) Transcribe(context.Context, string, string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	idx := e.calls
	e.calls++
	if idx < len(e.texts) {
		return e.texts[idx], nil
	}
	return "", nil
}

type cliTestEnv struct {
	cfg         *config.Config
	configPath  string
	baseDir     string
	media       string
	engine      *stubEngine
	durationMs  int64
	interactive bool
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithLexicon("damn", "son of a"))
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENAI_API_KEY", "")
	cfg.Logging.Level = "error"

	configPath := filepath.Join(homeDir, ".config", "profscreen", "config.toml")
	writeTestConfig(t, configPath, cfg)

	media := filepath.Join(base, "media", "episode.mkv")
	testsupport.WriteFile(t, media, 1024)

	return &cliTestEnv{
		cfg:        cfg,
		configPath: configPath,
		baseDir:    base,
		media:      media,
		engine:     &stubEngine{texts: []string{"good evening", "well damn", "the end"}},
		durationMs: 12000,
	}
}

func (env *cliTestEnv) options() []contextOption {
	return []contextOption{func(c *commandContext) {
		c.newExtractor = func(*config.Config, *slog.Logger) pipeline.Extractor {
			return stubExtractor{durationMs: env.durationMs}
		}
		c.newEngine = func(*config.Config, *slog.Logger) transcribe.Factory {
			return func() (transcribe.Engine, error) { return env.engine, nil }
		}
		c.checkDeps = func(*config.Config) error { return nil }
		c.interactive = func(io.Reader) bool { return env.interactive }
	}}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand(env.options()...)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(append([]string{"--config", env.configPath}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
