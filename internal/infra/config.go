package infra

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config는 애플리케이션의 모든 설정을 담습니다.
// LoadConfig로 로드된 후에 환경 변수를 통해 민감 내용을 덮어씁니다.
type Config struct {
	App struct {
		Name    string `yaml:"name"`
		Version string `yaml:"version"`
	} `yaml:"app"`

	API struct {
		BaseURL    string `yaml:"base_url"`
		TimeoutSec int    `yaml:"timeout_sec"`
	} `yaml:"api"`

	Stream struct {
		URL     string   `yaml:"url"`
		Symbols []string `yaml:"symbols"`
	} `yaml:"stream"`

	Market struct {
		CoinsTTLHours       int    `yaml:"coins_ttl_hours"`
		PricesTTLMinutes    int    `yaml:"prices_ttl_minutes"`
		RecheckMinutes      int    `yaml:"recheck_minutes"`
		ConversionTTLHours  int    `yaml:"conversion_ttl_hours"`
		DefaultCurrency     string `yaml:"default_currency"`
		IconDownloadWorkers int    `yaml:"icon_download_workers"`
	} `yaml:"market"`

	Cache struct {
		StaleTimeSec       int `yaml:"stale_time_sec"`
		GCTimeSec          int `yaml:"gc_time_sec"`
		StaticStaleTimeMin int `yaml:"static_stale_time_min"`
		SweepIntervalSec   int `yaml:"sweep_interval_sec"`
	} `yaml:"cache"`

	Logging struct {
		Level string `yaml:"level"`
	} `yaml:"logging"`
}

// LoadConfig는 설정 파일을 읽고 파싱합니다.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	// 보안 우선 - 환경 변수 오버라이드 지원
	overrideWithEnv(&cfg)

	// 설정 유효성 검사
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.API.TimeoutSec <= 0 {
		cfg.API.TimeoutSec = 15
	}
	if cfg.Market.CoinsTTLHours <= 0 {
		cfg.Market.CoinsTTLHours = 24
	}
	if cfg.Market.PricesTTLMinutes <= 0 {
		cfg.Market.PricesTTLMinutes = 15
	}
	if cfg.Market.RecheckMinutes <= 0 {
		cfg.Market.RecheckMinutes = 5
	}
	if cfg.Market.ConversionTTLHours <= 0 {
		cfg.Market.ConversionTTLHours = 24
	}
	if cfg.Market.DefaultCurrency == "" {
		cfg.Market.DefaultCurrency = "USD"
	}
	if cfg.Market.IconDownloadWorkers <= 0 {
		cfg.Market.IconDownloadWorkers = 5
	}
	if cfg.Cache.StaleTimeSec <= 0 {
		cfg.Cache.StaleTimeSec = 30
	}
	if cfg.Cache.GCTimeSec <= 0 {
		cfg.Cache.GCTimeSec = 300
	}
	if cfg.Cache.StaticStaleTimeMin <= 0 {
		cfg.Cache.StaticStaleTimeMin = 30
	}
	if cfg.Cache.SweepIntervalSec <= 0 {
		cfg.Cache.SweepIntervalSec = 60
	}
}

// Validate checks configuration validity
func (c *Config) Validate() error {
	// Backend API
	if !hasPrefix(c.API.BaseURL, "http://") && !hasPrefix(c.API.BaseURL, "https://") {
		return fmt.Errorf("invalid API base URL: %s", c.API.BaseURL)
	}

	// Live stream is optional; when set it must be a websocket URL
	if c.Stream.URL != "" && !hasPrefix(c.Stream.URL, "ws://") && !hasPrefix(c.Stream.URL, "wss://") {
		return fmt.Errorf("invalid stream URL: %s", c.Stream.URL)
	}

	if len(c.Market.DefaultCurrency) != 3 {
		return fmt.Errorf("invalid default currency: %s", c.Market.DefaultCurrency)
	}

	return nil
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[0:len(prefix)] == prefix
}

// overrideWithEnv는 환경 변수가 존재할 경우 설정 값을 덮어씁니다.
func overrideWithEnv(cfg *Config) {
	if base := os.Getenv("TRADEDESK_API_BASE_URL"); base != "" {
		cfg.API.BaseURL = base
	}
	if stream := os.Getenv("TRADEDESK_STREAM_URL"); stream != "" {
		cfg.Stream.URL = stream
	}
	if currency := os.Getenv("TRADEDESK_DEFAULT_CURRENCY"); currency != "" {
		cfg.Market.DefaultCurrency = strings.ToUpper(currency)
	}
	if level := os.Getenv("TRADEDESK_LOG_LEVEL"); level != "" {
		cfg.Logging.Level = level
	}
}
