package config

import (
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Default locations and tuning. Delays exist to respect the market-data
// provider's rate limit: at least half a second between upstream calls and a
// full second between the two symbol fetches of one analyze run.
const (
	DefaultConfigFile   = "config.yaml"
	defaultListenAddr   = ":8080"
	defaultMarketAPIURL = "https://finnhub.io/api/v1"
	defaultLLMAPIURL    = "https://openrouter.ai/api/v1/chat/completions"
	defaultModel        = "deepseek/deepseek-v3.2-exp"
	defaultCallDelay    = 500 * time.Millisecond
	defaultSymbolDelay  = time.Second
	defaultHistoryDays  = 365
	defaultNewsWindow   = 7
	defaultNewsLimit    = 5
)

// Config is the resolved runtime configuration.
type Config struct {
	ListenAddr     string
	MarketAPIURL   string
	MarketAPIKey   string
	LLMAPIURL      string
	LLMAPIKey      string
	Model          string
	CallDelay      time.Duration
	SymbolDelay    time.Duration
	HistoryDays    int
	NewsWindowDays int
	NewsLimit      int
	WALDir         string
	TLSDomains     []string
	TLSCacheDir    string
}

// ConfigTmp mirrors the YAML file layout. API keys may be left out of the
// file and provided via FINNHUB_API_KEY / LLM_API_KEY instead.
type ConfigTmp struct {
	ListenAddr     string        `yaml:"listen_addr,omitempty"`
	MarketAPIURL   string        `yaml:"market_api_url,omitempty"`
	MarketAPIKey   string        `yaml:"market_api_key,omitempty"`
	LLMAPIURL      string        `yaml:"llm_api_url,omitempty"`
	LLMAPIKey      string        `yaml:"llm_api_key,omitempty"`
	Model          string        `yaml:"model,omitempty"`
	CallDelay      time.Duration `yaml:"call_delay,omitempty"`
	SymbolDelay    time.Duration `yaml:"symbol_delay,omitempty"`
	HistoryDays    int           `yaml:"history_days,omitempty"`
	NewsWindowDays int           `yaml:"news_window_days,omitempty"`
	NewsLimit      int           `yaml:"news_limit,omitempty"`
	WALDir         string        `yaml:"wal_dir,omitempty"`
	TLSDomains     []string      `yaml:"tls_domains,omitempty"`
	TLSCacheDir    string        `yaml:"tls_cache_dir,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		ListenAddr:     defaultListenAddr,
		MarketAPIURL:   defaultMarketAPIURL,
		LLMAPIURL:      defaultLLMAPIURL,
		Model:          defaultModel,
		CallDelay:      defaultCallDelay,
		SymbolDelay:    defaultSymbolDelay,
		HistoryDays:    defaultHistoryDays,
		NewsWindowDays: defaultNewsWindow,
		NewsLimit:      defaultNewsLimit,
	}
}

// Get resolves configuration from flags, the YAML file and environment
// variables, in that order of discovery. A missing default config file is not
// an error (the caller may run the setup wizard); a missing explicit --config
// path is.
func Get() (Config, bool, error) {
	path := flag.String("config", DefaultConfigFile, "path to yaml config")
	addr := flag.String("addr", "", "listen address override")
	flag.Parse()

	cfg := Default()

	found := true
	data, err := os.ReadFile(*path)
	if err != nil {
		if !os.IsNotExist(err) {
			return Config{}, false, errors.Wrapf(err, "read config %s", *path)
		}
		if *path != DefaultConfigFile {
			return Config{}, false, errors.Errorf("config file %s does not exist", *path)
		}
		found = false
	} else {
		var tmp ConfigTmp
		if err := yaml.Unmarshal(data, &tmp); err != nil {
			return Config{}, false, errors.Wrapf(err, "parse config %s", *path)
		}
		tmp.apply(&cfg)
	}

	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		cfg.MarketAPIKey = key
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.LLMAPIKey = key
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}

	return cfg, found, nil
}

// Load reads one explicit YAML file over the defaults and applies env
// overrides. Used after the setup wizard generates a config.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	var tmp ConfigTmp
	if err := yaml.Unmarshal(data, &tmp); err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	tmp.apply(&cfg)

	if key := os.Getenv("FINNHUB_API_KEY"); key != "" {
		cfg.MarketAPIKey = key
	}
	if key := os.Getenv("LLM_API_KEY"); key != "" {
		cfg.LLMAPIKey = key
	}

	return cfg, nil
}

func (t ConfigTmp) apply(cfg *Config) {
	if t.ListenAddr != "" {
		cfg.ListenAddr = t.ListenAddr
	}
	if t.MarketAPIURL != "" {
		cfg.MarketAPIURL = t.MarketAPIURL
	}
	if t.MarketAPIKey != "" {
		cfg.MarketAPIKey = t.MarketAPIKey
	}
	if t.LLMAPIURL != "" {
		cfg.LLMAPIURL = t.LLMAPIURL
	}
	if t.LLMAPIKey != "" {
		cfg.LLMAPIKey = t.LLMAPIKey
	}
	if t.Model != "" {
		cfg.Model = t.Model
	}
	if t.CallDelay > 0 {
		cfg.CallDelay = t.CallDelay
	}
	if t.SymbolDelay > 0 {
		cfg.SymbolDelay = t.SymbolDelay
	}
	if t.HistoryDays > 0 {
		cfg.HistoryDays = t.HistoryDays
	}
	if t.NewsWindowDays > 0 {
		cfg.NewsWindowDays = t.NewsWindowDays
	}
	if t.NewsLimit > 0 {
		cfg.NewsLimit = t.NewsLimit
	}
	if t.WALDir != "" {
		cfg.WALDir = t.WALDir
	}
	if len(t.TLSDomains) > 0 {
		cfg.TLSDomains = t.TLSDomains
	}
	if t.TLSCacheDir != "" {
		cfg.TLSCacheDir = t.TLSCacheDir
	}
}

// Validate checks that the pieces needed to serve real traffic are present.
func (c Config) Validate() error {
	if c.MarketAPIKey == "" {
		return errors.New("market-data API key is not set (FINNHUB_API_KEY or market_api_key)")
	}
	if c.LLMAPIKey == "" {
		return errors.New("LLM API key is not set (LLM_API_KEY or llm_api_key)")
	}
	return nil
}
