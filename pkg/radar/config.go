package radar

const (
	// AdapterTimeoutSecs is the hard network timeout each adapter enforces
	// per call, independent of the orchestrator's budget.
	AdapterTimeoutSecs = 15

	// OrchestratorTimeoutSecs bounds the whole fan-out, extraction included.
	OrchestratorTimeoutSecs = 60

	// DailyQuota is the per-user call limit on derived-input mode.
	DailyQuota = 10

	// MaxExcerptBytes caps the raw-HTML excerpt handed to the extraction step.
	MaxExcerptBytes = 10 * 1024

	// MinExcerptBytes is the threshold under which an excerpt is treated as
	// "the source found nothing" and extraction is skipped.
	MinExcerptBytes = 200
)

// Config controls the engine: adapter endpoints, the LLM backend, the quota
// store and the HTTP surface.
type Config struct {
	API     APIConfig     `yaml:"api"`
	GraphQL GraphQLConfig `yaml:"graphql"`
	HTML    HTMLConfig    `yaml:"html"`
	Raw     RawConfig     `yaml:"raw"`
	LLM     LLMConfig     `yaml:"llm"`
	Quota   QuotaConfig   `yaml:"quota"`
	Server  ServerConfig  `yaml:"server"`

	// CityFile optionally extends the built-in city table.
	CityFile string `yaml:"city_file"`
}

// APIConfig drives the deterministic JSON adapter.
type APIConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	APIKey      string `yaml:"api_key"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
}

// GraphQLConfig drives the deterministic GraphQL adapter.
type GraphQLConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	Endpoint    string `yaml:"endpoint"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
}

// HTMLConfig drives the HTML+JSON-LD scraping adapter.
type HTMLConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	UserAgent   string `yaml:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
}

// RawConfig drives the raw-HTML excerpt adapter.
type RawConfig struct {
	Enabled     *bool  `yaml:"enabled"`
	BaseURL     string `yaml:"base_url"`
	UserAgent   string `yaml:"user_agent"`
	TimeoutSecs int    `yaml:"timeout_seconds"`
	MaxBytes    int    `yaml:"max_bytes"`
}

// LLMConfig configures the text-understanding backend used by the
// extraction step and the query resolver. A missing API key is a fatal
// configuration error, reported before any work starts.
type LLMConfig struct {
	APIKey          string `yaml:"api_key"`
	BaseURL         string `yaml:"base_url"`
	Model           string `yaml:"model"`
	TimeoutSecs     int    `yaml:"timeout_seconds"`
	MaxPromptTokens int    `yaml:"max_prompt_tokens"`
}

// QuotaConfig configures the derived-input daily limit and its store.
type QuotaConfig struct {
	DailyLimit int    `yaml:"daily_limit"`
	Path       string `yaml:"path"`
}

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr          string `yaml:"addr"`
	RatePerMinute int    `yaml:"rate_per_minute"`
}

// WithDefaults fills unset fields.
func (c *Config) WithDefaults() *Config {
	if c == nil {
		c = &Config{}
	}
	c.API = c.API.withDefaults()
	c.GraphQL = c.GraphQL.withDefaults()
	c.HTML = c.HTML.withDefaults()
	c.Raw = c.Raw.withDefaults()
	c.LLM = c.LLM.withDefaults()
	c.Quota = c.Quota.withDefaults()
	c.Server = c.Server.withDefaults()
	return c
}

func (c APIConfig) withDefaults() APIConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://api.openagenda.io/v2"
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = AdapterTimeoutSecs
	}
	return c
}

func (c GraphQLConfig) withDefaults() GraphQLConfig {
	if c.Endpoint == "" {
		c.Endpoint = "https://mobilizon.fr/api"
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = AdapterTimeoutSecs
	}
	return c
}

func (c HTMLConfig) withDefaults() HTMLConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.eventbrite.com"
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = AdapterTimeoutSecs
	}
	return c
}

func (c RawConfig) withDefaults() RawConfig {
	if c.BaseURL == "" {
		c.BaseURL = "https://www.meetup.com"
	}
	if c.UserAgent == "" {
		c.UserAgent = defaultUserAgent
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = AdapterTimeoutSecs
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = MaxExcerptBytes
	}
	return c
}

func (c LLMConfig) withDefaults() LLMConfig {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.TimeoutSecs <= 0 {
		c.TimeoutSecs = 30
	}
	if c.MaxPromptTokens <= 0 {
		c.MaxPromptTokens = 6000
	}
	return c
}

func (c QuotaConfig) withDefaults() QuotaConfig {
	if c.DailyLimit <= 0 {
		c.DailyLimit = DailyQuota
	}
	if c.Path == "" {
		c.Path = "radar.db"
	}
	return c
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = 30
	}
	return c
}

const defaultUserAgent = "Mozilla/5.0 (compatible; RadarBot/1.0; +https://momentlabs.io/radar)"

func isEnabled(flag *bool, fallback bool) bool {
	if flag == nil {
		return fallback
	}
	return *flag
}
