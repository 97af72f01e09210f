package config

import (
	"fmt"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
	kFloat
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "server.port", typ: kInt, env: "SNAPTUNE_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.mcp_port", typ: kInt, env: "SNAPTUNE_SERVER_MCP_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.MCPPort = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.MCPPort },
	},
	{
		key: "server.api_token", typ: kString, env: "SNAPTUNE_API_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.APIToken = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.APIToken },
	},
	{
		key: "ollama.base_url", typ: kString, env: "SNAPTUNE_OLLAMA_BASE_URL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.BaseURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.BaseURL },
	},
	{
		key: "ollama.vision_model", typ: kString, env: "SNAPTUNE_OLLAMA_VISION_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.VisionModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.VisionModel },
	},
	{
		key: "ollama.text_model", typ: kString, env: "SNAPTUNE_OLLAMA_TEXT_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.TextModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.TextModel },
	},
	{
		key: "ollama.embed_model", typ: kString, env: "SNAPTUNE_OLLAMA_EMBED_MODEL",
		apply:   func(cfg *Config, v any) { cfg.Ollama.EmbedModel = v.(string) },
		extract: func(cfg Config) any { return cfg.Ollama.EmbedModel },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SNAPTUNE_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "storage.audio_dir", typ: kString, env: "SNAPTUNE_STORAGE_AUDIO_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.AudioDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.AudioDir },
	},
	{
		key: "storage.cache_size", typ: kInt, env: "SNAPTUNE_STORAGE_CACHE_SIZE",
		apply:   func(cfg *Config, v any) { cfg.Storage.CacheSize = v.(int) },
		extract: func(cfg Config) any { return cfg.Storage.CacheSize },
	},
	{
		key: "studio.entry_url", typ: kString, env: "SNAPTUNE_STUDIO_ENTRY_URL",
		apply:   func(cfg *Config, v any) { cfg.Studio.EntryURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Studio.EntryURL },
	},
	{
		key: "studio.create_url", typ: kString, env: "SNAPTUNE_STUDIO_CREATE_URL",
		apply:   func(cfg *Config, v any) { cfg.Studio.CreateURL = v.(string) },
		extract: func(cfg Config) any { return cfg.Studio.CreateURL },
	},
	{
		key: "studio.landing_pattern", typ: kString, env: "SNAPTUNE_STUDIO_LANDING_PATTERN",
		apply:   func(cfg *Config, v any) { cfg.Studio.LandingPattern = v.(string) },
		extract: func(cfg Config) any { return cfg.Studio.LandingPattern },
	},
	{
		key: "studio.headless", typ: kBool, env: "SNAPTUNE_STUDIO_HEADLESS",
		apply:   func(cfg *Config, v any) { cfg.Studio.Headless = v.(bool) },
		extract: func(cfg Config) any { return cfg.Studio.Headless },
	},
	{
		key: "studio.slow_mo_millis", typ: kFloat, env: "SNAPTUNE_STUDIO_SLOW_MO_MILLIS",
		apply:   func(cfg *Config, v any) { cfg.Studio.SlowMoMillis = v.(float64) },
		extract: func(cfg Config) any { return cfg.Studio.SlowMoMillis },
	},
	{
		key: "studio.login_timeout", typ: kString, env: "SNAPTUNE_STUDIO_LOGIN_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Studio.LoginTimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Studio.LoginTimeout },
	},
	{
		key: "studio.render_timeout", typ: kString, env: "SNAPTUNE_STUDIO_RENDER_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Studio.RenderTimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Studio.RenderTimeout },
	},
	{
		key: "studio.step_timeout", typ: kString, env: "SNAPTUNE_STUDIO_STEP_TIMEOUT",
		apply:   func(cfg *Config, v any) { cfg.Studio.StepTimeout = v.(string) },
		extract: func(cfg Config) any { return cfg.Studio.StepTimeout },
	},
}

func applyBackend(cfg *Config, b ConfigBackend) error {
	for _, s := range specs {
		if s.secret {
			continue
		}
		switch s.typ {
		case kString:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kInt:
			v, ok, err := b.GetInt(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok {
				s.apply(cfg, v)
			}
		case kBool:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if bv, err := strconv.ParseBool(v); err == nil {
					s.apply(cfg, bv)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		case kFloat:
			v, ok, err := b.GetString(s.key)
			if err != nil {
				return fmt.Errorf("reading %s: %w", s.key, err)
			}
			if ok && v != "" {
				if f, err := strconv.ParseFloat(v, 64); err == nil {
					s.apply(cfg, f)
				} else {
					fmt.Fprintf(os.Stderr, "[WARN] could not parse float from config key %s=%q: %v. Using default value.\n", s.key, v, err)
				}
			}
		}
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kFloat:
			if f, err := strconv.ParseFloat(raw, 64); err == nil {
				s.apply(cfg, f)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse float from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}
