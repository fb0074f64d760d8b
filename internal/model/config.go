package model

import "time"

// Config holds all engine and CLI configuration
type Config struct {
	HTTP         HTTPConfig       `yaml:"http" mapstructure:"http"`
	Liveness     LivenessConfig   `yaml:"liveness" mapstructure:"liveness"`
	Recency      RecencyConfig    `yaml:"recency" mapstructure:"recency"`
	Duplicate    DuplicateConfig  `yaml:"duplicate" mapstructure:"duplicate"`
	Validation   ValidationConfig `yaml:"validation" mapstructure:"validation"`
	RateLimiting RateLimitConfig  `yaml:"rate_limiting" mapstructure:"rate_limiting"`
	Cache        CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Reconcile    ReconcileConfig  `yaml:"reconcile" mapstructure:"reconcile"`
	Store        StoreConfig      `yaml:"store" mapstructure:"store"`
	Redis        RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Collector    CollectorConfig  `yaml:"collector" mapstructure:"collector"`
	Metrics      MetricsConfig    `yaml:"metrics" mapstructure:"metrics"`
	Logging      LoggingConfig    `yaml:"logging" mapstructure:"logging"`
}

// HTTPConfig controls the shared outbound HTTP client
type HTTPConfig struct {
	UserAgent    string `yaml:"user_agent" mapstructure:"user_agent"`
	MaxRedirects int    `yaml:"max_redirects" mapstructure:"max_redirects"`
	InsecureTLS  bool   `yaml:"insecure_tls" mapstructure:"insecure_tls"`
	HTTPProxy    string `yaml:"http_proxy" mapstructure:"http_proxy"`
	HTTPSProxy   string `yaml:"https_proxy" mapstructure:"https_proxy"`
	NoProxy      string `yaml:"no_proxy" mapstructure:"no_proxy"`
}

// LivenessConfig controls source URL checks
type LivenessConfig struct {
	AttemptTimeout time.Duration `yaml:"attempt_timeout" mapstructure:"attempt_timeout"`
	MaxAttempts    int           `yaml:"max_attempts" mapstructure:"max_attempts"`
	Backoff        time.Duration `yaml:"backoff" mapstructure:"backoff"`

	// ExemptDomains are never probed (social and short-lived feeds)
	ExemptDomains []string `yaml:"exempt_domains" mapstructure:"exempt_domains"`

	// FakeHosts and FakeTokens flag fabricated links without a request
	FakeHosts  []string `yaml:"fake_hosts" mapstructure:"fake_hosts"`
	FakeTokens []string `yaml:"fake_tokens" mapstructure:"fake_tokens"`

	// RejectIPHosts treats bare IP literals as fabricated
	RejectIPHosts bool `yaml:"reject_ip_hosts" mapstructure:"reject_ip_hosts"`

	// URLOptionalProducers may submit a blank URL, which is then treated as absent
	URLOptionalProducers []string `yaml:"url_optional_producers" mapstructure:"url_optional_producers"`
}

// RecencyConfig holds the allowed lookback per classification
type RecencyConfig struct {
	OfficialWindow time.Duration `yaml:"official_window" mapstructure:"official_window"`
	PublicWindow   time.Duration `yaml:"public_window" mapstructure:"public_window"`
	FutureSkew     time.Duration `yaml:"future_skew" mapstructure:"future_skew"`
}

// DuplicateConfig controls near-duplicate detection
type DuplicateConfig struct {
	TitleSimilarity float64 `yaml:"title_similarity" mapstructure:"title_similarity"`
}

// ValidationConfig controls the worker pool
type ValidationConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// RateLimitConfig controls per-host politeness for liveness checks
type RateLimitConfig struct {
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	BurstSize         int     `yaml:"burst_size" mapstructure:"burst_size"`
	RespectRobots     bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
}

// CacheConfig controls the liveness verdict cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
	// MaxEntries bounds the memory tier; 0 means unbounded
	MaxEntries int `yaml:"max_entries" mapstructure:"max_entries"`
}

// ReconcileConfig controls the repair loop
type ReconcileConfig struct {
	MaxIterations int `yaml:"max_iterations" mapstructure:"max_iterations"`
}

// StoreConfig selects and configures the datastore
type StoreConfig struct {
	Driver   string `yaml:"driver" mapstructure:"driver"` // memory, sqlite, postgres
	DSN      string `yaml:"dsn" mapstructure:"dsn"`
	MaxConns int    `yaml:"max_conns" mapstructure:"max_conns"`
}

// RedisConfig enables cross-process group locks when URL is set
type RedisConfig struct {
	URL      string        `yaml:"url" mapstructure:"url"`
	Password string        `yaml:"password" mapstructure:"password"`
	LockTTL  time.Duration `yaml:"lock_ttl" mapstructure:"lock_ttl"`
}

// CollectorConfig wires replacement producers
type CollectorConfig struct {
	// Default collector for producers without an explicit route: openai, feed, none
	Default string `yaml:"default" mapstructure:"default"`

	// Routes maps a producer ID to a collector name
	Routes map[string]string `yaml:"routes" mapstructure:"routes"`

	// Concurrency bounds parallel recollection requests
	Concurrency int `yaml:"concurrency" mapstructure:"concurrency"`

	OpenAI OpenAIConfig `yaml:"openai" mapstructure:"openai"`
	Feed   FeedConfig   `yaml:"feed" mapstructure:"feed"`
}

// OpenAIConfig configures the language-model collector
type OpenAIConfig struct {
	APIKey      string        `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL     string        `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Model       string        `yaml:"model" mapstructure:"model"`
	MaxTokens   int           `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature float32       `yaml:"temperature" mapstructure:"temperature"`
	Timeout     time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// FeedConfig configures the syndication-feed collector
type FeedConfig struct {
	// URLTemplates contain {subject} and optionally {category}
	URLTemplates []string      `yaml:"url_templates" mapstructure:"url_templates"`
	Timeout      time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// MetricsConfig controls the Prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" mapstructure:"level"` // debug, info, warn, error
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			UserAgent:    "Verifier/0.3 (+https://github.com/ppiankov/verifier)",
			MaxRedirects: 5,
		},
		Liveness: LivenessConfig{
			AttemptTimeout: 30 * time.Second,
			MaxAttempts:    3,
			Backoff:        2 * time.Second,
			ExemptDomains: []string{
				"twitter.com", "x.com", "t.co",
				"facebook.com", "fb.watch",
				"instagram.com", "threads.net",
				"tiktok.com", "youtube.com", "youtu.be",
				"t.me", "blog.naver.com", "cafe.naver.com",
			},
			FakeHosts: []string{
				"example.com", "example.org", "example.net",
				"localhost", "test.com", "domain.com", "yourdomain.com",
				"*.example", "*.test", "*.invalid", "*.localhost",
			},
			FakeTokens:    []string{"xxx", "dummy", "placeholder", "fake", "lorem", "sample-url"},
			RejectIPHosts: true,
		},
		Recency: RecencyConfig{
			OfficialWindow: 1826 * 24 * time.Hour,
			PublicWindow:   730 * 24 * time.Hour,
			FutureSkew:     48 * time.Hour,
		},
		Duplicate: DuplicateConfig{
			TitleSimilarity: 0.95,
		},
		Validation: ValidationConfig{
			Workers: 20,
		},
		RateLimiting: RateLimitConfig{
			RequestsPerSecond: 2,
			BurstSize:         4,
		},
		Cache: CacheConfig{
			Enabled:    true,
			Dir:        "",
			MemoryTTL:  30 * time.Minute,
			DiskTTL:    24 * time.Hour,
			MaxEntries: 50000,
		},
		Reconcile: ReconcileConfig{
			MaxIterations: 3,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "verifier.db",
		},
		Redis: RedisConfig{
			LockTTL: 2 * time.Minute,
		},
		Collector: CollectorConfig{
			Default:     "none",
			Concurrency: 4,
			OpenAI: OpenAIConfig{
				Model:       "gpt-4o-mini",
				MaxTokens:   2000,
				Temperature: 0.2,
				Timeout:     60 * time.Second,
			},
			Feed: FeedConfig{
				URLTemplates: []string{"https://news.google.com/rss/search?q={subject}"},
				Timeout:      15 * time.Second,
			},
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
