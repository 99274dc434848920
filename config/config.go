package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds everything the service needs at startup.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Gateways GatewaysConfig `yaml:"gateways"`
	Models   ModelsConfig   `yaml:"models"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Assets   AssetsConfig   `yaml:"assets"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type GatewaysConfig struct {
	Default   GatewayConfig `yaml:"default"`
	Alternate GatewayConfig `yaml:"alternate"`
}

// GatewayConfig describes one OpenAI-compatible gateway. The key itself is never
// stored in the file; APIKeyEnv names the secret to read.
type GatewayConfig struct {
	BaseURL   string            `yaml:"base_url"`
	APIKeyEnv string            `yaml:"api_key_env"`
	Headers   map[string]string `yaml:"headers"`
}

type ModelsConfig struct {
	Default         string   `yaml:"default"`
	Image           string   `yaml:"image"`
	AlternatePrefix string   `yaml:"alternate_prefix"`
	ImageCapable    []string `yaml:"image_capable"`
}

type PipelineConfig struct {
	ImageCap     int    `yaml:"image_cap"`
	ImageTimeout string `yaml:"image_timeout"`
	TitleMaxLen  int    `yaml:"title_max_len"`
	MaxRetries   int    `yaml:"max_retries"`
}

type AssetsConfig struct {
	PostgresDSN string `yaml:"postgres_dsn"`
	CacheSize   int    `yaml:"cache_size"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{Addr: ":8080"},
		Gateways: GatewaysConfig{
			Default: GatewayConfig{
				BaseURL:   "https://ai.gateway.lovable.dev/v1",
				APIKeyEnv: "AI_GATEWAY_API_KEY",
			},
			Alternate: GatewayConfig{
				BaseURL:   "https://openrouter.ai/api/v1",
				APIKeyEnv: "OPENROUTER_API_KEY",
				Headers: map[string]string{
					"HTTP-Referer": "https://creative-studio.local",
					"X-Title":      "Creative Studio",
				},
			},
		},
		Models: ModelsConfig{
			Default:         "google/gemini-2.5-flash",
			Image:           "google/gemini-2.5-flash-image-preview",
			AlternatePrefix: "openrouter/",
			ImageCapable: []string{
				"google/gemini-2.5-flash-image-preview",
				"google/gemini-2.5-flash-image",
			},
		},
		Pipeline: PipelineConfig{
			ImageCap:     3,
			ImageTimeout: "30s",
			TitleMaxLen:  50,
		},
		Assets:  AssetsConfig{CacheSize: 1024},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads .env (if present), then the YAML file at path (if non-empty), then
// applies environment overrides. JSON files are accepted as YAML.
func Load(path string) (Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		if strings.HasPrefix(port, ":") {
			c.Server.Addr = port
		} else {
			c.Server.Addr = ":" + port
		}
	}
	if dsn := strings.TrimSpace(os.Getenv("ASSET_STORE_PG_DSN")); dsn != "" {
		c.Assets.PostgresDSN = dsn
	}
	if lvl := strings.TrimSpace(os.Getenv("LOG_LEVEL")); lvl != "" {
		c.Logging.Level = lvl
	}
	if v := strings.TrimSpace(os.Getenv("IMAGE_TIMEOUT")); v != "" {
		c.Pipeline.ImageTimeout = v
	}
	if v := strings.TrimSpace(os.Getenv("LLM_MAX_RETRIES")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Pipeline.MaxRetries = n
		}
	}
}

// Validate rejects values the service cannot start with. Missing credentials are
// not an error here: requests routed to a gateway without a key fail on their own.
func (c Config) Validate() error {
	if c.Models.Default == "" {
		return errors.New("models.default is required")
	}
	if c.Pipeline.ImageCap < 0 {
		return errors.New("pipeline.image_cap must not be negative")
	}
	if _, err := c.ImageTimeout(); err != nil {
		return err
	}
	return nil
}

// ImageTimeout parses pipeline.image_timeout, defaulting to 30s.
func (c Config) ImageTimeout() (time.Duration, error) {
	if strings.TrimSpace(c.Pipeline.ImageTimeout) == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.Pipeline.ImageTimeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("pipeline.image_timeout %q is not a positive duration", c.Pipeline.ImageTimeout)
	}
	return d, nil
}
