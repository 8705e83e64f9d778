package config

import (
	"errors"
	"fmt"

	"profscreen/internal/services"
)

// Validate ensures the configuration is usable. Failures wrap
// services.ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if err := c.validatePipeline(); err != nil {
		return fmt.Errorf("%w: %w", services.ErrInvalidConfiguration, err)
	}
	if err := c.validateTranscription(); err != nil {
		return fmt.Errorf("%w: %w", services.ErrInvalidConfiguration, err)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if c.Pipeline.WindowMs <= 0 {
		return fmt.Errorf("pipeline.window_ms must be positive, got %d", c.Pipeline.WindowMs)
	}
	switch c.Pipeline.OnError {
	case OnErrorAbort, OnErrorSkip:
	default:
		return fmt.Errorf("pipeline.on_error must be %q or %q, got %q", OnErrorAbort, OnErrorSkip, c.Pipeline.OnError)
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.Transcription.SegmentTimeoutSeconds < 0 {
		return errors.New("transcription.segment_timeout_seconds must not be negative")
	}
	switch c.Transcription.Engine {
	case EngineWhisperX:
		switch c.WhisperX.VADMethod {
		case "silero":
		case "pyannote":
			if c.WhisperX.HFToken == "" {
				return errors.New("whisperx.hf_token must be set when whisperx.vad_method is pyannote (or export HF_TOKEN)")
			}
		default:
			return fmt.Errorf("whisperx.vad_method must be silero or pyannote, got %q", c.WhisperX.VADMethod)
		}
	case EngineOpenAI:
	default:
		return fmt.Errorf("transcription.engine must be %q or %q, got %q", EngineWhisperX, EngineOpenAI, c.Transcription.Engine)
	}
	return nil
}

// ValidateEngineCredentials reports missing credentials for the selected
// engine. It is separate from Validate so `config validate` and `doctor`
// work before an API key is exported.
func (c *Config) ValidateEngineCredentials() error {
	if c.Transcription.Engine == EngineOpenAI && c.OpenAI.APIKey == "" {
		return fmt.Errorf("%w: openai.api_key is required for the openai engine (set OPENAI_API_KEY)", services.ErrInvalidConfiguration)
	}
	return nil
}
