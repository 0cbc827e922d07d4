// internal/config/config.go
package config

import (
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level crawler configuration.
type Config struct {
	Site     SiteConfig     `yaml:"site"`
	HTTP     HTTPConfig     `yaml:"http"`
	Browser  BrowserConfig  `yaml:"browser"`
	Download DownloadConfig `yaml:"download"`
	Storage  StorageConfig  `yaml:"storage"`
	Server   ServerConfig   `yaml:"server"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// SiteConfig holds the catalog site conventions.
type SiteConfig struct {
	BaseURL    string   `yaml:"base_url"`
	CDNDomains []string `yaml:"cdn_domains,omitempty"`
}

// HTTPConfig configures the shared scraping client.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"`
	RetryAttempts int           `yaml:"retry_attempts"`
	RetryDelay    time.Duration `yaml:"retry_delay"`
	RateLimit     float64       `yaml:"rate_limit"` // requests per second
	RateBurst     int           `yaml:"rate_burst"`
	UserAgents    []string      `yaml:"user_agents,omitempty"`
	Referer       string        `yaml:"referer,omitempty"`
}

// BrowserConfig configures the headless browser session used by the
// rendered extraction fallback.
type BrowserConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Headless    bool          `yaml:"headless"`
	PageTimeout time.Duration `yaml:"page_timeout"`
	PlayWait    time.Duration `yaml:"play_wait"`
}

// DownloadConfig configures the layered retrieval driver.
type DownloadConfig struct {
	FFmpegPath   string        `yaml:"ffmpeg_path"`
	YtDlpPath    string        `yaml:"ytdlp_path"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	ToolTimeout  time.Duration `yaml:"tool_timeout"`
	MinPauseSecs float64       `yaml:"min_pause_secs"`
	MaxPauseSecs float64       `yaml:"max_pause_secs"`
}

// StorageConfig configures the output layout and crawl index.
type StorageConfig struct {
	OutputDir string `yaml:"output_dir"`
	IndexPath string `yaml:"index_path"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	ListenAddress string        `yaml:"listen_address"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
}

// LoggingConfig controls log verbosity.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// LoadFromFile loads configuration from a YAML file.
func LoadFromFile(filename string) (*Config, error) {
	if filename == "" {
		return nil, fmt.Errorf("configuration filename cannot be empty")
	}

	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", filename)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %v", err)
	}

	return LoadFromBytes(data)
}

// LoadFromBytes loads configuration from YAML bytes.
func LoadFromBytes(data []byte) (*Config, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("configuration data cannot be empty")
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML configuration: %v", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %v", err)
	}

	return &cfg, nil
}

// LoadFromReader loads configuration from an io.Reader.
func LoadFromReader(reader io.Reader) (*Config, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader cannot be nil")
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read from reader: %v", err)
	}

	return LoadFromBytes(data)
}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.Site.BaseURL == "" {
		cfg.Site.BaseURL = "https://javtrailers.com"
	}
	if len(cfg.Site.CDNDomains) == 0 {
		cfg.Site.CDNDomains = []string{
			"https://cc3001.dmm.co.jp",
			"https://cc3002.dmm.co.jp",
		}
	}

	if cfg.HTTP.Timeout <= 0 {
		cfg.HTTP.Timeout = 30 * time.Second
	}
	if cfg.HTTP.RetryAttempts <= 0 {
		cfg.HTTP.RetryAttempts = 3
	}
	if cfg.HTTP.RetryDelay <= 0 {
		cfg.HTTP.RetryDelay = time.Second
	}
	if cfg.HTTP.RateLimit <= 0 {
		cfg.HTTP.RateLimit = 1.0
	}
	if cfg.HTTP.RateBurst <= 0 {
		cfg.HTTP.RateBurst = 3
	}
	if cfg.HTTP.Referer == "" {
		cfg.HTTP.Referer = cfg.Site.BaseURL + "/"
	}

	if cfg.Browser.PageTimeout <= 0 {
		cfg.Browser.PageTimeout = 45 * time.Second
	}
	if cfg.Browser.PlayWait <= 0 {
		cfg.Browser.PlayWait = 5 * time.Second
	}

	if cfg.Download.FFmpegPath == "" {
		cfg.Download.FFmpegPath = "ffmpeg"
	}
	if cfg.Download.YtDlpPath == "" {
		cfg.Download.YtDlpPath = "yt-dlp"
	}
	if cfg.Download.MaxRetries <= 0 {
		cfg.Download.MaxRetries = 3
	}
	if cfg.Download.RetryDelay <= 0 {
		cfg.Download.RetryDelay = time.Second
	}
	if cfg.Download.ToolTimeout <= 0 {
		cfg.Download.ToolTimeout = 10 * time.Minute
	}
	if cfg.Download.MinPauseSecs <= 0 {
		cfg.Download.MinPauseSecs = 0.5
	}
	if cfg.Download.MaxPauseSecs <= 0 {
		cfg.Download.MaxPauseSecs = 2.0
	}

	if cfg.Storage.OutputDir == "" {
		cfg.Storage.OutputDir = "downloads"
	}
	if cfg.Storage.IndexPath == "" {
		cfg.Storage.IndexPath = "downloads/crawl-index.db"
	}

	if cfg.Server.ListenAddress == "" {
		cfg.Server.ListenAddress = ":8080"
	}
	if cfg.Server.ReadTimeout <= 0 {
		cfg.Server.ReadTimeout = 15 * time.Second
	}
	if cfg.Server.WriteTimeout <= 0 {
		// Download endpoints block for the duration of the retrieval.
		cfg.Server.WriteTimeout = 15 * time.Minute
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url is required")
	}
	if c.HTTP.RateLimit <= 0 {
		return fmt.Errorf("http.rate_limit must be positive")
	}
	if c.Download.MaxRetries < 1 {
		return fmt.Errorf("download.max_retries must be at least 1")
	}
	if c.Download.MinPauseSecs > c.Download.MaxPauseSecs {
		return fmt.Errorf("download.min_pause_secs cannot exceed max_pause_secs")
	}
	if c.Storage.OutputDir == "" {
		return fmt.Errorf("storage.output_dir is required")
	}
	return nil
}
