package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ostegm/moltbook-study/internal/model"
)

// Config is the application's configuration model. It captures API
// credentials, judge settings, and the file layout of a run.
type Config struct {
	Moltbook MoltbookConfig `yaml:"moltbook"`
	Judge    JudgeConfig    `yaml:"judge"`
	Paths    PathsConfig    `yaml:"paths"`
}

type MoltbookConfig struct {
	BaseURL string `yaml:"baseURL"`
	// API bearer token. If empty, read from env MOLTBOOK_API_KEY
	APIKey string `yaml:"apiKey"`
	// Page size for the paginated pull
	PageSize int `yaml:"pageSize"`
}

type JudgeConfig struct {
	BaseURL string `yaml:"baseURL"`
	Model   string `yaml:"model"`
	// If empty, read from env OPENAI_API_KEY
	APIKey string `yaml:"apiKey"`
	// Per-call timeout in seconds
	TimeoutSeconds int `yaml:"timeoutSeconds"`
	// Sustained requests/sec and burst for the rate limiter
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Validate rejects judge settings that cannot produce a working client.
// Zero means "use the client default"; negatives are always a mistake.
func (j JudgeConfig) Validate() error {
	switch {
	case j.Model == "":
		return fmt.Errorf("%w: judge model is required", model.ErrConfiguration)
	case j.TimeoutSeconds < 0:
		return fmt.Errorf("%w: judge timeout must be >= 0, got %d", model.ErrConfiguration, j.TimeoutSeconds)
	case j.RPS < 0:
		return fmt.Errorf("%w: judge rps must be >= 0, got %g", model.ErrConfiguration, j.RPS)
	case j.Burst < 0:
		return fmt.Errorf("%w: judge burst must be >= 0, got %d", model.ErrConfiguration, j.Burst)
	}
	return nil
}

type PathsConfig struct {
	Raw        string `yaml:"raw"`
	Classified string `yaml:"classified"`
	Stats      string `yaml:"stats"`
	DBPath     string `yaml:"dbPath"`
}

// Default returns a sensible default configuration.
func Default() Config {
	return Config{
		Moltbook: MoltbookConfig{
			BaseURL:  "https://www.moltbook.com/api/v1",
			PageSize: 100,
		},
		Judge: JudgeConfig{
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 60,
			RPS:            5,
			Burst:          10,
		},
		Paths: PathsConfig{
			Raw:        "./raw_posts.jsonl",
			Classified: "./classified_posts.jsonl",
			Stats:      "./prefilter_stats.json",
			DBPath:     "./moltjudge.db",
		},
	}
}

// ResolveEnv fills in config fields from environment variables if not set.
func (c *Config) ResolveEnv() {
	if c.Moltbook.APIKey == "" {
		c.Moltbook.APIKey = os.Getenv("MOLTBOOK_API_KEY")
	}
	if c.Judge.APIKey == "" {
		c.Judge.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, err
	}
	cfg.ResolveEnv()
	return cfg, nil
}

// Save writes YAML config to path, creating directories as needed.
func Save(path string, cfg Config) error {
	if path == "" {
		return errors.New("empty path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
