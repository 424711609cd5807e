package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the root configuration for the docmind service.
//
// Loaded from a YAML file with ${ENV_VAR} / ${ENV_VAR:-default} expansion
// applied before parsing. Every section applies defaults via SetDefaults and
// is checked via Validate; a configuration that fails validation is fatal at
// startup, never retried.
type Config struct {
	// Preprocessor is the LLM slot used for query preprocessing.
	Preprocessor LLMConfig `yaml:"preprocessor"`

	// Responder is the LLM slot used for answer generation.
	Responder LLMConfig `yaml:"responder"`

	Embedder   EmbedderConfig   `yaml:"embedder"`
	Vector     VectorConfig     `yaml:"vector"`
	Corpus     CorpusConfig     `yaml:"corpus"`
	Retrieval  RetrievalConfig  `yaml:"retrieval"`
	Reasoning  ReasoningConfig  `yaml:"reasoning"`
	Server     ServerConfig     `yaml:"server"`
	Summarizer SummarizerConfig `yaml:"summarizer"`
	Logger     LoggerConfig     `yaml:"logger"`
}

// LLMConfig configures one LLM provider slot.
type LLMConfig struct {
	// Type selects the provider implementation (gemini, openai).
	// Providers are selected here, once, at construction time.
	Type string `yaml:"type"`

	Model       string  `yaml:"model"`
	APIKey      string  `yaml:"api_key"`
	Host        string  `yaml:"host,omitempty"`
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`

	// Timeout is the per-call timeout in seconds.
	Timeout int `yaml:"timeout"`

	// MaxRetries bounds rate-limit/transient retries in the HTTP layer.
	MaxRetries int `yaml:"max_retries"`
}

// SetDefaults applies default values to LLMConfig.
func (c *LLMConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "gemini"
	}
	if c.Model == "" {
		switch c.Type {
		case "openai":
			c.Model = "gpt-4o"
		default:
			c.Model = "gemini-2.0-flash"
		}
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 1024
	}
	if c.Timeout == 0 {
		c.Timeout = 60
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
}

// Validate checks the LLM configuration.
func (c *LLMConfig) Validate() error {
	switch c.Type {
	case "gemini", "openai":
	default:
		return NewConfigError("llm", fmt.Sprintf("unsupported provider type: %s (supported: gemini, openai)", c.Type))
	}
	if c.APIKey == "" {
		return NewConfigError("llm", fmt.Sprintf("api_key is required for provider %s", c.Type))
	}
	return nil
}

// EmbedderConfig configures the embedding provider.
type EmbedderConfig struct {
	// Type selects the embedder implementation (openai, ollama).
	Type string `yaml:"type"`

	Model     string `yaml:"model"`
	APIKey    string `yaml:"api_key,omitempty"`
	Host      string `yaml:"host,omitempty"`
	Dimension int    `yaml:"dimension,omitempty"`
	Timeout   int    `yaml:"timeout,omitempty"`

	// MaxRetries bounds rate-limit/transient retries in the HTTP layer.
	MaxRetries int `yaml:"max_retries,omitempty"`
}

// SetDefaults applies default values to EmbedderConfig.
func (c *EmbedderConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "openai"
	}
	if c.Model == "" {
		switch c.Type {
		case "ollama":
			c.Model = "nomic-embed-text"
		default:
			c.Model = "text-embedding-3-small"
		}
	}
	if c.Timeout == 0 {
		c.Timeout = 30
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 5
	}
}

// Validate checks the embedder configuration.
func (c *EmbedderConfig) Validate() error {
	switch c.Type {
	case "openai":
		if c.APIKey == "" {
			return NewConfigError("embedder", "api_key is required for openai embedder")
		}
	case "ollama":
	default:
		return NewConfigError("embedder", fmt.Sprintf("unsupported embedder type: %s (supported: openai, ollama)", c.Type))
	}
	return nil
}

// VectorConfig configures the vector store provider.
type VectorConfig struct {
	// Type selects the provider (chromem, qdrant).
	Type string `yaml:"type"`

	// Collection is the collection name for document fragments.
	Collection string `yaml:"collection"`

	Chromem *ChromemConfig `yaml:"chromem,omitempty"`
	Qdrant  *QdrantConfig  `yaml:"qdrant,omitempty"`
}

// ChromemConfig configures the embedded chromem provider.
type ChromemConfig struct {
	// PersistPath for file persistence. Empty means in-memory only.
	PersistPath string `yaml:"persist_path,omitempty"`

	// Compress enables gzip compression for persistence.
	Compress bool `yaml:"compress,omitempty"`
}

// QdrantConfig configures the Qdrant provider.
type QdrantConfig struct {
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	APIKey string `yaml:"api_key,omitempty"`
	UseTLS bool   `yaml:"use_tls,omitempty"`
}

// SetDefaults applies default values to VectorConfig.
func (c *VectorConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = "chromem"
	}
	if c.Collection == "" {
		c.Collection = "doc_fragments"
	}
	if c.Type == "chromem" && c.Chromem == nil {
		c.Chromem = &ChromemConfig{}
	}
	if c.Qdrant != nil && c.Qdrant.Port == 0 {
		c.Qdrant.Port = 6334
	}
}

// Validate checks the vector configuration.
func (c *VectorConfig) Validate() error {
	switch c.Type {
	case "chromem":
		return nil
	case "qdrant":
		if c.Qdrant == nil || c.Qdrant.Host == "" {
			return NewConfigError("vector", "qdrant host is required")
		}
		return nil
	default:
		return NewConfigError("vector", fmt.Sprintf("unsupported vector provider: %s (supported: chromem, qdrant)", c.Type))
	}
}

// CorpusConfig configures the corpus snapshot store.
type CorpusConfig struct {
	// Source selects the loader (file, sqlite).
	Source string `yaml:"source"`

	// Path is the JSONL artifact path (file source) or database path (sqlite).
	Path string `yaml:"path"`

	// RefreshTTLHours is how long a snapshot stays fresh. Default 24.
	RefreshTTLHours int `yaml:"refresh_ttl_hours"`
}

// SetDefaults applies default values to CorpusConfig.
func (c *CorpusConfig) SetDefaults() {
	if c.Source == "" {
		c.Source = "file"
	}
	if c.RefreshTTLHours == 0 {
		c.RefreshTTLHours = 24
	}
}

// Validate checks the corpus configuration.
func (c *CorpusConfig) Validate() error {
	switch c.Source {
	case "file", "sqlite":
	default:
		return NewConfigError("corpus", fmt.Sprintf("unsupported corpus source: %s (supported: file, sqlite)", c.Source))
	}
	if c.Path == "" {
		return NewConfigError("corpus", "path is required")
	}
	return nil
}

// RetrievalConfig configures per-query retrieval behavior.
type RetrievalConfig struct {
	// TopK is the per-call result limit for a single sub-query.
	TopK int `yaml:"top_k"`

	// MaxMerged caps the merged fragment list per sub-query after boosts.
	MaxMerged int `yaml:"max_merged"`

	// EnableBoosts toggles the rule-based boost queries.
	EnableBoosts *bool `yaml:"enable_boosts,omitempty"`
}

// SetDefaults applies default values to RetrievalConfig.
func (c *RetrievalConfig) SetDefaults() {
	if c.TopK == 0 {
		c.TopK = 8
	}
	if c.MaxMerged == 0 {
		c.MaxMerged = 10
	}
	if c.EnableBoosts == nil {
		enabled := true
		c.EnableBoosts = &enabled
	}
}

// BoostsEnabled reports whether boost queries are enabled.
func (c *RetrievalConfig) BoostsEnabled() bool {
	return c.EnableBoosts != nil && *c.EnableBoosts
}

// ReasoningConfig configures the reasoning loop.
type ReasoningConfig struct {
	// ReasoningLimit is the level after which the responder is asked for a
	// final answer.
	ReasoningLimit int `yaml:"reasoning_limit"`

	// MaxContextFragments caps fragments offered to the responder per round.
	MaxContextFragments int `yaml:"max_context_fragments"`

	// MaxContextTokens bounds the assembled context string.
	MaxContextTokens int `yaml:"max_context_tokens"`

	// MaxExpansionQueries caps keywords and questions kept from preprocessing.
	MaxExpansionQueries int `yaml:"max_expansion_queries"`
}

// SetDefaults applies default values to ReasoningConfig.
func (c *ReasoningConfig) SetDefaults() {
	if c.ReasoningLimit == 0 {
		c.ReasoningLimit = 1
	}
	if c.MaxContextFragments == 0 {
		c.MaxContextFragments = 10
	}
	if c.MaxContextTokens == 0 {
		c.MaxContextTokens = 12000
	}
	if c.MaxExpansionQueries == 0 {
		c.MaxExpansionQueries = 2
	}
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// AllowedOrigins for CORS. Default allows any origin.
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// Address returns the host:port listen address.
func (c *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// SetDefaults applies default values to ServerConfig.
func (c *ServerConfig) SetDefaults() {
	if c.Host == "" {
		c.Host = "0.0.0.0"
	}
	if c.Port == 0 {
		c.Port = 8000
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
}

// SummarizerConfig configures the thread summarization batch job.
type SummarizerConfig struct {
	// MaxConcurrent bounds in-flight summarization calls.
	MaxConcurrent int `yaml:"max_concurrent"`

	// BatchSize is how many summaries accumulate before a save.
	BatchSize int `yaml:"batch_size"`

	// StorePath is the SQLite database holding summaries.
	StorePath string `yaml:"store_path"`

	// MaxRetries bounds retries of a failed batch save.
	MaxRetries int `yaml:"max_retries"`

	// RetryDelaySeconds is the base backoff delay between save retries.
	RetryDelaySeconds float64 `yaml:"retry_delay_seconds"`
}

// SetDefaults applies default values to SummarizerConfig.
func (c *SummarizerConfig) SetDefaults() {
	if c.MaxConcurrent == 0 {
		c.MaxConcurrent = 5
	}
	if c.BatchSize == 0 {
		c.BatchSize = 10
	}
	if c.MaxRetries == 0 {
		c.MaxRetries = 3
	}
	if c.RetryDelaySeconds == 0 {
		c.RetryDelaySeconds = 1.0
	}
}

// SetDefaults applies defaults to all sections.
func (c *Config) SetDefaults() {
	c.Preprocessor.SetDefaults()
	c.Responder.SetDefaults()
	c.Embedder.SetDefaults()
	c.Vector.SetDefaults()
	c.Corpus.SetDefaults()
	c.Retrieval.SetDefaults()
	c.Reasoning.SetDefaults()
	c.Server.SetDefaults()
	c.Summarizer.SetDefaults()
	c.Logger.SetDefaults()
}

// Validate checks all sections.
func (c *Config) Validate() error {
	if err := c.Preprocessor.Validate(); err != nil {
		return err
	}
	if err := c.Responder.Validate(); err != nil {
		return err
	}
	if err := c.Embedder.Validate(); err != nil {
		return err
	}
	if err := c.Vector.Validate(); err != nil {
		return err
	}
	if err := c.Corpus.Validate(); err != nil {
		return err
	}
	return c.Logger.Validate()
}

// Load reads a config file, expands environment variables, applies defaults
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError("load", fmt.Sprintf("failed to read config file %s: %v", path, err))
	}

	expanded := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, NewConfigError("load", fmt.Sprintf("failed to parse config file %s: %v", path, err))
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}
