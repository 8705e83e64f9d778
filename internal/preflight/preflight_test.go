package preflight

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"profscreen/internal/config"
	"profscreen/internal/deps"
	"profscreen/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckOutputPath(t *testing.T) {
	ok := CheckOutputPath(filepath.Join(t.TempDir(), "not", "yet", "report.csv"))
	if !ok.Passed {
		t.Fatalf("expected nested destination to pass, got: %s", ok.Detail)
	}
	if CheckOutputPath("").Passed {
		t.Fatal("expected failure for empty destination")
	}
}

func TestCheckLexicon(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.csv")
	testsupport.WriteLexicon(t, path, "damn", "", "heck")

	result := CheckLexicon(path, "en")
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "2 terms") || !strings.Contains(result.Detail, "1 rows skipped") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}

	if CheckLexicon(filepath.Join(t.TempDir(), "missing.csv"), "en").Passed {
		t.Fatal("expected failure for missing lexicon")
	}

	bad := filepath.Join(t.TempDir(), "bad.csv")
	if err := os.WriteFile(bad, []byte("Word\nx\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if CheckLexicon(bad, "en").Passed {
		t.Fatal("expected failure for lexicon without Profanity column")
	}
}

func TestCheckHistory(t *testing.T) {
	result := CheckHistory(context.Background(), filepath.Join(t.TempDir(), "db", "history.db"))
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "0 runs") {
		t.Fatalf("unexpected detail: %s", result.Detail)
	}
}

func TestCheckOpenAI_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = io.WriteString(w, `{"id":"whisper-1"}`)
	}))
	defer srv.Close()

	result := CheckOpenAI(context.Background(), config.OpenAI{APIKey: "good-key", BaseURL: srv.URL, Model: "whisper-1"})
	if !result.Passed {
		t.Fatalf("expected pass, got: %s", result.Detail)
	}
}

func TestCheckOpenAI_BadKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	result := CheckOpenAI(context.Background(), config.OpenAI{APIKey: "bad-key", BaseURL: srv.URL})
	if result.Passed {
		t.Fatal("expected failure for bad key")
	}
}

func TestCheckOpenAI_MissingKey(t *testing.T) {
	result := CheckOpenAI(context.Background(), config.OpenAI{BaseURL: "http://localhost"})
	if result.Passed {
		t.Fatal("expected failure for missing key")
	}
}

func TestCheckEngine(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckEngine(context.Background(), cfg)
	if !result.Passed || result.Name != "WhisperX" {
		t.Fatalf("expected WhisperX pass, got %+v", result)
	}

	cfg.Transcription.Engine = "vosk"
	if CheckEngine(context.Background(), cfg).Passed {
		t.Fatal("expected failure for unknown engine")
	}
}

func TestCheckSystemDeps(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries("ffmpeg", "ffprobe"))
	t.Setenv("PATH", filepath.Join(testsupport.BaseDir(cfg), "bin"))

	statuses := CheckSystemDeps(cfg)
	if len(statuses) != 3 {
		t.Fatalf("expected 3 statuses, got %d", len(statuses))
	}
	if err := deps.Require(statuses); err == nil || !strings.Contains(err.Error(), "uvx") {
		t.Fatalf("expected uvx to be required for whisperx, got %v", err)
	}

	cfg.Transcription.Engine = config.EngineOpenAI
	if err := deps.Require(CheckSystemDeps(cfg)); err != nil {
		t.Fatalf("uvx should be optional for openai: %v", err)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_MinimalConfig(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	// Work directory + report destination + engine
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if failed := Failed(results); len(failed) != 0 {
		t.Fatalf("unexpected failures: %+v", failed)
	}
}

func TestRunAll_IncludesOptionalChecks(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithLexicon("damn"))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}
	cfg.Transcription.Engine = config.EngineOpenAI

	results := RunAll(context.Background(), cfg)
	names := make(map[string]Result, len(results))
	for _, r := range results {
		names[r.Name] = r
	}
	for _, want := range []string{"Work directory", "Report destination", "Lexicon", "Run history", "OpenAI API"} {
		if _, ok := names[want]; !ok {
			t.Fatalf("expected %s check in results: %+v", want, results)
		}
	}
	if names["OpenAI API"].Passed {
		t.Fatal("expected OpenAI check to fail without a key")
	}
	if len(Failed(results)) != 1 {
		t.Fatalf("expected exactly one failure, got %+v", Failed(results))
	}
}
