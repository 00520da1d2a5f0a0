// Package config loads process configuration from an optional YAML file,
// overridden by environment variables, the same fallback cobra.OnInitialize
// wires for CLI flags.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds the service's environment variables and configuration keys.
type Config struct {
	LLM struct {
		APIKey  string        `yaml:"api_key"`
		BaseURL string        `yaml:"base_url"`
		Timeout time.Duration `yaml:"timeout"`
	} `yaml:"llm"`

	OCR struct {
		ServiceURL    string        `yaml:"service_url"` // empty disables the GPU path
		Timeout       time.Duration `yaml:"timeout"`
		Audience      string        `yaml:"audience"`       // OIDC audience for the bearer token
		SigningSecret string        `yaml:"signing_secret"` // HMAC key backing the self-signed bearer token
		Issuer        string        `yaml:"issuer"`
	} `yaml:"ocr"`

	Blob struct {
		Bucket string `yaml:"bucket"`
		Region string `yaml:"region"`
	} `yaml:"blob"`

	TaskQueue struct {
		URL      string `yaml:"url"`      // NATS server URL; empty runs synchronous/local mode
		Subject  string `yaml:"subject"`
		Invoker  string `yaml:"invoker"`
	} `yaml:"task_queue"`

	Database struct {
		URL string `yaml:"url"`
	} `yaml:"database"`

	Redis struct {
		Addr string `yaml:"addr"`
	} `yaml:"redis"`

	Server struct {
		Address string `yaml:"address"`
	} `yaml:"server"`

	MaxRetryCount int `yaml:"max_retry_count"` // 4, for 5 total delivery attempts
}

// Default returns the zero-value config with the standard defaults filled
// in (MaxRetryCount=4).
func Default() *Config {
	cfg := &Config{}
	cfg.MaxRetryCount = 4
	cfg.LLM.Timeout = 60 * time.Second
	cfg.OCR.Timeout = 150 * time.Second
	cfg.Server.Address = ":8080"
	return cfg
}

// Load reads path (if non-empty and present) into Default(), then applies
// environment-variable overrides. Missing file is not an error: local/dev
// runs are expected to configure entirely through env vars.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	strOverride(&cfg.LLM.APIKey, "LLM_API_KEY")
	strOverride(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	strOverride(&cfg.OCR.ServiceURL, "OCR_SERVICE_URL")
	strOverride(&cfg.OCR.Audience, "OCR_AUDIENCE")
	strOverride(&cfg.OCR.SigningSecret, "OCR_SIGNING_SECRET")
	strOverride(&cfg.OCR.Issuer, "OCR_ISSUER")
	strOverride(&cfg.Blob.Bucket, "BLOB_BUCKET")
	strOverride(&cfg.Blob.Region, "BLOB_REGION")
	strOverride(&cfg.TaskQueue.URL, "TASK_QUEUE_URL")
	strOverride(&cfg.TaskQueue.Subject, "TASK_QUEUE_SUBJECT")
	strOverride(&cfg.TaskQueue.Invoker, "TASK_QUEUE_INVOKER")
	strOverride(&cfg.Database.URL, "DATABASE_URL")
	strOverride(&cfg.Redis.Addr, "REDIS_ADDR")
	strOverride(&cfg.Server.Address, "SERVER_ADDRESS")
}

func strOverride(dst *string, env string) {
	if v, ok := os.LookupEnv(env); ok && v != "" {
		*dst = v
	}
}
