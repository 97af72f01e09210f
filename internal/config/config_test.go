package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// memBackend is an in-memory ConfigBackend for tests.
type memBackend struct {
	data map[string]any
}

func (m *memBackend) GetString(key string) (string, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, nil
	}
	return s, true, nil
}

func (m *memBackend) GetInt(key string) (int, bool, error) {
	v, ok := m.data[key]
	if !ok {
		return 0, false, nil
	}
	i, ok := v.(int)
	if !ok {
		return 0, false, nil
	}
	return i, true, nil
}

func (m *memBackend) SetString(key, val string) error { m.data[key] = val; return nil }
func (m *memBackend) SetInt(key string, val int) error { m.data[key] = val; return nil }
func (m *memBackend) Delete(key string) error          { delete(m.data, key); return nil }

func testLoad(t *testing.T, b ConfigBackend) Config {
	t.Helper()
	// Keep the token out of the real data dir.
	t.Setenv("SNAPTUNE_STORAGE_DATA_DIR", t.TempDir())
	cfg, err := loadWith(b)
	if err != nil {
		t.Fatalf("loadWith: %v", err)
	}
	return cfg
}

func TestDefaults(t *testing.T) {
	cfg := testLoad(t, &memBackend{data: map[string]any{}})

	if cfg.Server.Port != 4600 {
		t.Errorf("Server.Port = %d, want 4600", cfg.Server.Port)
	}
	if cfg.Server.MCPPort != 4601 {
		t.Errorf("Server.MCPPort = %d, want 4601", cfg.Server.MCPPort)
	}
	if cfg.Ollama.BaseURL != "http://localhost:11434" {
		t.Errorf("Ollama.BaseURL = %q", cfg.Ollama.BaseURL)
	}
	if cfg.Ollama.VisionModel != "llava" {
		t.Errorf("Ollama.VisionModel = %q", cfg.Ollama.VisionModel)
	}
	if cfg.Ollama.EmbedModel != "nomic-embed-text" {
		t.Errorf("Ollama.EmbedModel = %q", cfg.Ollama.EmbedModel)
	}
	if cfg.Storage.CacheSize != 100 {
		t.Errorf("Storage.CacheSize = %d, want 100", cfg.Storage.CacheSize)
	}
	if cfg.Studio.Headless {
		t.Error("Studio.Headless should default to false")
	}
	if cfg.Studio.LoginTimeout != "3m" {
		t.Errorf("Studio.LoginTimeout = %q, want 3m", cfg.Studio.LoginTimeout)
	}
}

func TestBackendValues(t *testing.T) {
	cfg := testLoad(t, &memBackend{data: map[string]any{
		"server.port":         5600,
		"ollama.vision_model": "llava:13b",
		"studio.headless":     "true",
		"studio.step_timeout": "30s",
	}})

	if cfg.Server.Port != 5600 {
		t.Errorf("Server.Port = %d, want 5600", cfg.Server.Port)
	}
	if cfg.Ollama.VisionModel != "llava:13b" {
		t.Errorf("Ollama.VisionModel = %q", cfg.Ollama.VisionModel)
	}
	if !cfg.Studio.Headless {
		t.Error("Studio.Headless not applied from backend")
	}
	if cfg.Studio.StepTimeout != "30s" {
		t.Errorf("Studio.StepTimeout = %q", cfg.Studio.StepTimeout)
	}
}

func TestEnvOverridesBackend(t *testing.T) {
	t.Setenv("SNAPTUNE_SERVER_PORT", "7000")
	t.Setenv("SNAPTUNE_OLLAMA_TEXT_MODEL", "env-model")

	cfg := testLoad(t, &memBackend{data: map[string]any{
		"server.port":       5600,
		"ollama.text_model": "file-model",
	}})

	if cfg.Server.Port != 7000 {
		t.Errorf("Server.Port = %d, want env override 7000", cfg.Server.Port)
	}
	if cfg.Ollama.TextModel != "env-model" {
		t.Errorf("Ollama.TextModel = %q, want env-model", cfg.Ollama.TextModel)
	}
}

func TestTokenFromEnv(t *testing.T) {
	t.Setenv("SNAPTUNE_API_TOKEN", "env-token")
	cfg := testLoad(t, &memBackend{data: map[string]any{}})

	if cfg.Server.APIToken != "env-token" {
		t.Errorf("APIToken = %q, want env-token", cfg.Server.APIToken)
	}
}

func TestTokenGeneratedAndReused(t *testing.T) {
	dir := t.TempDir()

	first, err := LoadOrCreateToken(dir)
	if err != nil {
		t.Fatalf("LoadOrCreateToken: %v", err)
	}
	if len(first) != 64 {
		t.Errorf("token length = %d, want 64 hex chars", len(first))
	}

	second, err := LoadOrCreateToken(dir)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("token not reused between loads")
	}

	data, err := os.ReadFile(filepath.Join(dir, secretsFileName))
	if err != nil {
		t.Fatal(err)
	}
	var s secretsFile
	if err := json.Unmarshal(data, &s); err != nil {
		t.Fatal(err)
	}
	if s.APIToken != first {
		t.Error("secrets file does not hold the returned token")
	}
}

func TestParseDuration(t *testing.T) {
	if got := ParseDuration("45s", time.Minute); got != 45*time.Second {
		t.Errorf("ParseDuration(45s) = %v", got)
	}
	if got := ParseDuration("", time.Minute); got != time.Minute {
		t.Errorf("ParseDuration(empty) = %v, want fallback", got)
	}
	if got := ParseDuration("nonsense", time.Minute); got != time.Minute {
		t.Errorf("ParseDuration(nonsense) = %v, want fallback", got)
	}
	if got := ParseDuration("-5s", time.Minute); got != time.Minute {
		t.Errorf("ParseDuration(-5s) = %v, want fallback", got)
	}
}

func TestSetKeyRejectsSecrets(t *testing.T) {
	err := SetKey("server.api_token", "x")
	if err == nil || !strings.Contains(err.Error(), "secret") {
		t.Errorf("SetKey on secret = %v, want refusal", err)
	}
}

func TestValidKeysExcludeSecrets(t *testing.T) {
	for _, k := range ValidKeys() {
		if k == "server.api_token" {
			t.Error("secret key listed in ValidKeys")
		}
	}
}
