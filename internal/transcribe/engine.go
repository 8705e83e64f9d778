package transcribe

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"profscreen/internal/config"
	"profscreen/internal/services"
	"profscreen/internal/services/openai"
	"profscreen/internal/services/whisperx"
)

// Engine recognizes speech in a WAV clip.
type Engine interface {
	Name() string
	Transcribe(ctx context.Context, clipPath, language string) (string, error)
	Close() error
}

// Factory constructs an Engine.
type Factory func() (Engine, error)

// ErrProviderClosed is returned by Provider.Engine after Close.
var ErrProviderClosed = errors.New("transcription engine provider closed")

// Provider lazily constructs a single Engine and shares it until Close.
type Provider struct {
	factory Factory

	once   sync.Once
	mu     sync.Mutex
	engine Engine
	err    error
	closed bool
}

// NewProvider returns a Provider that builds its Engine with factory.
func NewProvider(factory Factory) *Provider {
	return &Provider{factory: factory}
}

// Engine returns the shared Engine, constructing it on first call. A
// construction failure is returned on every subsequent call.
func (p *Provider) Engine() (Engine, error) {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return nil, ErrProviderClosed
	}

	p.once.Do(func() {
		if p.factory == nil {
			p.err = errors.New("no transcription engine factory configured")
			return
		}
		engine, err := p.factory()
		p.mu.Lock()
		defer p.mu.Unlock()
		p.engine, p.err = engine, err
	})

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, ErrProviderClosed
	}
	return p.engine, p.err
}

// Close releases the Engine if one was built. Close is idempotent.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	if p.engine == nil {
		return nil
	}
	return p.engine.Close()
}

// NewEngine constructs the engine selected by cfg.Transcription.Engine.
func NewEngine(cfg *config.Config, logger *slog.Logger) (Engine, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrInvalidConfiguration, "transcription", "engine", "configuration unavailable", nil)
	}
	switch cfg.Transcription.Engine {
	case config.EngineWhisperX, "":
		svc := whisperx.NewService(whisperx.Config{
			Model:       cfg.WhisperX.Model,
			CUDAEnabled: cfg.WhisperX.CUDAEnabled,
			VADMethod:   cfg.WhisperX.VADMethod,
			HFToken:     cfg.WhisperX.HFToken,
			UVXBinary:   cfg.UVXBinary(),
		}, logger)
		return svc, nil
	case config.EngineOpenAI:
		if err := cfg.ValidateEngineCredentials(); err != nil {
			return nil, err
		}
		return openai.New(openai.Config{
			APIKey:  cfg.OpenAI.APIKey,
			BaseURL: cfg.OpenAI.BaseURL,
			Model:   cfg.OpenAI.Model,
			Timeout: time.Duration(cfg.OpenAI.TimeoutSeconds) * time.Second,
		}), nil
	default:
		return nil, services.Wrap(services.ErrInvalidConfiguration, "transcription", "engine",
			fmt.Sprintf("unknown engine %q", cfg.Transcription.Engine), nil)
	}
}
