package openai

import (
	"context"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeClip(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "segment-0000.wav")
	if err := os.WriteFile(path, []byte("RIFF-fake-audio"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return path
}

func TestTranscribePostsMultipartForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected authorization header %q", got)
		}
		mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mediaType != "multipart/form-data" {
			t.Errorf("unexpected content type %q (%v)", r.Header.Get("Content-Type"), err)
		}

		reader := multipart.NewReader(r.Body, params["boundary"])
		fields := make(map[string]string)
		var fileName, fileData string
		for {
			part, err := reader.NextPart()
			if err != nil {
				break
			}
			data, _ := io.ReadAll(part)
			if part.FormName() == "file" {
				fileName = part.FileName()
				fileData = string(data)
				continue
			}
			fields[part.FormName()] = string(data)
		}
		if fields["model"] != "whisper-1" || fields["language"] != "de" || fields["response_format"] != "json" {
			t.Errorf("unexpected fields %v", fields)
		}
		if filepath.Base(fileName) != "segment-0000.wav" || fileData != "RIFF-fake-audio" {
			t.Errorf("unexpected file %q (%q)", fileName, fileData)
		}

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"text": "  Guten Tag  "}`)
	}))
	defer server.Close()

	client := New(Config{APIKey: "test-key", BaseURL: server.URL + "/v1/"})
	text, err := client.Transcribe(context.Background(), writeClip(t), "de")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "Guten Tag" {
		t.Fatalf("unexpected text %q", text)
	}
}

func TestTranscribeSurfacesAPIErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"error": {"message": "Incorrect API key", "type": "invalid_request_error"}}`)
	}))
	defer server.Close()

	client := New(Config{APIKey: "bad", BaseURL: server.URL})
	_, err := client.Transcribe(context.Background(), writeClip(t), "en")
	if err == nil || !strings.Contains(err.Error(), "Incorrect API key") || !strings.Contains(err.Error(), "401") {
		t.Fatalf("expected API error, got %v", err)
	}
}

func TestTranscribePlainTextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client := New(Config{APIKey: "key", BaseURL: server.URL})
	_, err := client.Transcribe(context.Background(), writeClip(t), "en")
	if err == nil || !strings.Contains(err.Error(), "Bad Gateway") {
		t.Fatalf("expected status text in error, got %v", err)
	}
}

func TestTranscribeRequiresAPIKey(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	client := New(Config{})
	if _, err := client.Transcribe(context.Background(), writeClip(t), "en"); err == nil {
		t.Fatal("expected missing key error")
	}
}

func TestNewAppliesDefaultsAndEnvFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")
	client := New(Config{BaseURL: "  "})
	if client.apiKey != "from-env" {
		t.Fatalf("expected env key, got %q", client.apiKey)
	}
	if client.baseURL != DefaultBaseURL || client.Model() != "whisper-1" || client.Name() != "openai" {
		t.Fatalf("unexpected defaults: %+v", client)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/whisper-1" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = io.WriteString(w, `{"error": {"message": "Incorrect API key"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"id": "whisper-1", "object": "model"}`)
	}))
	defer server.Close()

	if err := New(Config{APIKey: "good", BaseURL: server.URL}).HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	err := New(Config{APIKey: "bad", BaseURL: server.URL}).HealthCheck(context.Background())
	if err == nil || !strings.Contains(err.Error(), "Incorrect API key") {
		t.Fatalf("expected auth error, got %v", err)
	}
}

func TestTranscribeUsesInjectedHTTPClient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		_, _ = io.WriteString(w, `{"text": "hola"}`)
	}))
	defer server.Close()

	counting := &countingTransport{base: http.DefaultTransport}
	client := New(Config{APIKey: "key", BaseURL: server.URL}, WithHTTPClient(&http.Client{Transport: counting}))
	text, err := client.Transcribe(context.Background(), writeClip(t), "es")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hola" || counting.requests != 1 {
		t.Fatalf("unexpected result %q after %d requests", text, counting.requests)
	}
}

func TestTranscribeMissingClip(t *testing.T) {
	client := New(Config{APIKey: "key", BaseURL: "http://127.0.0.1:1"})
	_, err := client.Transcribe(context.Background(), filepath.Join(t.TempDir(), "missing.wav"), "en")
	if err == nil || !strings.Contains(err.Error(), "read clip") {
		t.Fatalf("expected read clip error, got %v", err)
	}
}

type countingTransport struct {
	base     http.RoundTripper
	requests int
}

func (c *countingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	c.requests++
	return c.base.RoundTrip(r)
}
