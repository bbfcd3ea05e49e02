package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Settings holds the typed application configuration.
type Settings struct {
	Server    ServerSettings
	Log       LogSettings
	JWT       JWTSettings
	LLM       LLMSettings
	Questions QuestionSettings
	Speech    SpeechSettings
	Storage   StorageSettings
	Eval      EvalSettings
}

type ServerSettings struct {
	Port string
}

type LogSettings struct {
	Level  string
	Format string
}

type JWTSettings struct {
	Secret   string
	Issuer   string
	Audience string
}

type LLMSettings struct {
	Provider string // ollama|vertex|gemini
	Timeout  time.Duration

	ProbeRetries int
	ProbeTimeout time.Duration
	ProbeBackoff time.Duration

	OllamaBaseURL string
	OllamaModel   string

	VertexProjectID string
	VertexLocation  string
	VertexModel     string

	GeminiAPIKey string
	GeminiModel  string
}

type QuestionSettings struct {
	TemplatesFile string
}

type SpeechSettings struct {
	Enabled  bool
	Language string
}

type StorageSettings struct {
	AudioBucket string
}

type EvalSettings struct {
	Stream         string
	Group          string
	Workers        int
	ResultCacheTTL time.Duration
}

// LoadSettings reads settings from the environment (and an optional .env file
// already loaded by godotenv) on top of defaults.
func LoadSettings() (*Settings, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	defaults := map[string]any{
		"server.port":           "8080",
		"log.level":             "info",
		"log.format":            "json",
		"llm.provider":          "ollama",
		"llm.timeout":           "60s",
		"llm.probe_retries":     3,
		"llm.probe_timeout":     "5s",
		"llm.probe_backoff":     "1s",
		"ollama.base_url":       "http://localhost:11434",
		"ollama.model":          "gemma3:27b",
		"vertex.location":       "us-central1",
		"vertex.model":          "gemini-1.5-flash",
		"gemini.model":          "gemini-2.0-flash",
		"speech.enabled":        false,
		"speech.language":       "en-US",
		"eval.stream":           "interview:evaluations",
		"eval.group":            "evaluation-workers",
		"eval.workers":          2,
		"eval.result_cache_ttl": "10m",
	}
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	binds := map[string]string{
		"server.port":           "PORT",
		"log.level":             "LOG_LEVEL",
		"log.format":            "LOG_FORMAT",
		"jwt.secret":            "SUPABASE_JWT_SECRET",
		"jwt.issuer":            "SUPABASE_JWT_ISSUER",
		"jwt.audience":          "SUPABASE_JWT_AUDIENCE",
		"llm.provider":          "LLM_PROVIDER",
		"llm.timeout":           "LLM_TIMEOUT",
		"llm.probe_retries":     "LLM_PROBE_RETRIES",
		"llm.probe_timeout":     "LLM_PROBE_TIMEOUT",
		"llm.probe_backoff":     "LLM_PROBE_BACKOFF",
		"ollama.base_url":       "OLLAMA_BASE_URL",
		"ollama.model":          "OLLAMA_MODEL",
		"vertex.project_id":     "VERTEX_PROJECT_ID",
		"vertex.location":       "VERTEX_LOCATION",
		"vertex.model":          "VERTEX_MODEL",
		"gemini.api_key":        "GEMINI_API_KEY",
		"gemini.model":          "GEMINI_MODEL",
		"questions.templates":   "QUESTION_TEMPLATES_FILE",
		"speech.enabled":        "SPEECH_ENABLED",
		"speech.language":       "SPEECH_LANGUAGE",
		"storage.audio_bucket":  "GCS_AUDIO_BUCKET",
		"eval.stream":           "EVAL_STREAM",
		"eval.group":            "EVAL_GROUP",
		"eval.workers":          "EVAL_WORKERS",
		"eval.result_cache_ttl": "RESULT_CACHE_TTL",
	}
	for key, env := range binds {
		if err := v.BindEnv(key, env); err != nil {
			return nil, err
		}
	}

	s := &Settings{
		Server: ServerSettings{Port: v.GetString("server.port")},
		Log: LogSettings{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		JWT: JWTSettings{
			Secret:   v.GetString("jwt.secret"),
			Issuer:   v.GetString("jwt.issuer"),
			Audience: v.GetString("jwt.audience"),
		},
		LLM: LLMSettings{
			Provider:        strings.ToLower(strings.TrimSpace(v.GetString("llm.provider"))),
			Timeout:         v.GetDuration("llm.timeout"),
			ProbeRetries:    v.GetInt("llm.probe_retries"),
			ProbeTimeout:    v.GetDuration("llm.probe_timeout"),
			ProbeBackoff:    v.GetDuration("llm.probe_backoff"),
			OllamaBaseURL:   v.GetString("ollama.base_url"),
			OllamaModel:     v.GetString("ollama.model"),
			VertexProjectID: v.GetString("vertex.project_id"),
			VertexLocation:  v.GetString("vertex.location"),
			VertexModel:     v.GetString("vertex.model"),
			GeminiAPIKey:    v.GetString("gemini.api_key"),
			GeminiModel:     v.GetString("gemini.model"),
		},
		Questions: QuestionSettings{TemplatesFile: v.GetString("questions.templates")},
		Speech: SpeechSettings{
			Enabled:  v.GetBool("speech.enabled"),
			Language: v.GetString("speech.language"),
		},
		Storage: StorageSettings{AudioBucket: v.GetString("storage.audio_bucket")},
		Eval: EvalSettings{
			Stream:         v.GetString("eval.stream"),
			Group:          v.GetString("eval.group"),
			Workers:        v.GetInt("eval.workers"),
			ResultCacheTTL: v.GetDuration("eval.result_cache_ttl"),
		},
	}

	return s, s.validate()
}

func (s *Settings) validate() error {
	switch s.LLM.Provider {
	case "ollama", "vertex", "gemini":
	default:
		return errors.New("LLM_PROVIDER must be one of ollama, vertex, gemini")
	}
	if s.LLM.Timeout <= 0 {
		return errors.New("LLM_TIMEOUT must be positive")
	}
	if s.LLM.ProbeRetries < 1 {
		s.LLM.ProbeRetries = 1
	}
	if s.LLM.Provider == "vertex" && s.LLM.VertexProjectID == "" {
		return errors.New("VERTEX_PROJECT_ID is required when LLM_PROVIDER=vertex")
	}
	if s.LLM.Provider == "gemini" && s.LLM.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
	}
	if s.Eval.Workers <= 0 {
		s.Eval.Workers = 1
	}
	return nil
}
