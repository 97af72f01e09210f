package config

import (
	"fmt"
	"path/filepath"
	"time"
)

type Config struct {
	Server  ServerConfig
	Ollama  OllamaConfig
	Storage StorageConfig
	Studio  StudioConfig
}

type ServerConfig struct {
	Port     int
	MCPPort  int
	APIToken string
}

type OllamaConfig struct {
	BaseURL     string
	VisionModel string
	TextModel   string
	EmbedModel  string
}

type StorageConfig struct {
	DataDir   string
	AudioDir  string
	CacheSize int
}

type StudioConfig struct {
	EntryURL       string
	CreateURL      string
	LandingPattern string
	Headless       bool
	SlowMoMillis   float64
	LoginTimeout   string
	RenderTimeout  string
	StepTimeout    string
}

func defaults() Config {
	dataDir := defaultDataDir()
	return Config{
		Server: ServerConfig{
			Port:    4600,
			MCPPort: 4601,
		},
		Ollama: OllamaConfig{
			BaseURL:     "http://localhost:11434",
			VisionModel: "llava",
			TextModel:   "mistral-nemo",
			EmbedModel:  "nomic-embed-text",
		},
		Storage: StorageConfig{
			DataDir:   dataDir,
			AudioDir:  filepath.Join(dataDir, "audio"),
			CacheSize: 100,
		},
		Studio: StudioConfig{
			EntryURL:       "https://suno.com",
			CreateURL:      "https://suno.com/create",
			LandingPattern: "**/create**",
			Headless:       false,
			SlowMoMillis:   100,
			LoginTimeout:   "3m",
			RenderTimeout:  "4m",
			StepTimeout:    "15s",
		},
	}
}

// Load reads configuration from the JSON file at
// $XDG_CONFIG_HOME/snaptune/config.json with SNAPTUNE_* environment
// variables overriding file values. The API token is read from the secrets
// file in the data directory (generated on first use) unless
// SNAPTUNE_API_TOKEN overrides it.
func Load() (Config, error) {
	return loadWith(newPlatformBackend())
}

func loadWith(b ConfigBackend) (Config, error) {
	cfg := defaults()

	if err := applyBackend(&cfg, b); err != nil {
		return Config{}, err
	}

	applyEnvOverrides(&cfg)

	if cfg.Server.APIToken == "" {
		token, err := LoadOrCreateToken(cfg.Storage.DataDir)
		if err != nil {
			return Config{}, fmt.Errorf("loading API token: %w", err)
		}
		cfg.Server.APIToken = token
	}

	return cfg, nil
}

// ParseDuration resolves one of the Studio duration strings, falling back to
// the provided default when the value is empty or malformed.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
