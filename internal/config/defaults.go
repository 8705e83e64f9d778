package config

const (
	defaultWorkDir              = "~/.cache/profscreen/work"
	defaultLogDir               = "~/.local/share/profscreen/logs"
	defaultHistoryDB            = "~/.local/share/profscreen/history.db"
	defaultWindowMs             = 5000
	defaultLanguage             = "en"
	defaultOutputPath           = "output/transcription_toxic_labels.csv"
	defaultOnError              = OnErrorAbort
	defaultStaleWorkHours       = 24
	defaultEngine               = EngineWhisperX
	defaultWhisperXModel        = "base"
	defaultWhisperXVADMethod    = "silero"
	defaultOpenAIBaseURL        = "https://api.openai.com/v1"
	defaultOpenAIModel          = "whisper-1"
	defaultOpenAITimeoutSeconds = 120
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
)

// Transcription failure policies.
const (
	OnErrorAbort = "abort"
	OnErrorSkip  = "skip"
)

// Transcription engines.
const (
	EngineWhisperX = "whisperx"
	EngineOpenAI   = "openai"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			WorkDir:   defaultWorkDir,
			LogDir:    defaultLogDir,
			HistoryDB: defaultHistoryDB,
		},
		Pipeline: Pipeline{
			WindowMs:       defaultWindowMs,
			Language:       defaultLanguage,
			OutputPath:     defaultOutputPath,
			OnError:        defaultOnError,
			StaleWorkHours: defaultStaleWorkHours,
		},
		Transcription: Transcription{
			Engine: defaultEngine,
		},
		WhisperX: WhisperX{
			Model:     defaultWhisperXModel,
			VADMethod: defaultWhisperXVADMethod,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultOpenAITimeoutSeconds,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
