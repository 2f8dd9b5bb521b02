package types

import "time"

// AIConfig holds settings for the text-generation collaborator.
type AIConfig struct {
	// Model is the chat model identifier (e.g. "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// APIKey authenticates against the API. Empty means look it up in
	// .secrets/openai-api-key or OPENAI_API_KEY.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// BaseURL overrides the API endpoint for compatible servers.
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries bounds retries on HTTP 429 at the transport (default 3).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries" validate:"gte=0"`

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// DraftTemperature is used by the drafter only. Planning, extraction and
	// verification always run at temperature 0.
	DraftTemperature float32 `json:"draft_temperature" yaml:"draft_temperature" mapstructure:"draft_temperature" validate:"gte=0,lte=2"`
}

// EmbeddingConfig holds settings for the embedding collaborator.
type EmbeddingConfig struct {
	// Model is the embedding model identifier.
	Model string `json:"model" yaml:"model" mapstructure:"model" validate:"required"`

	// BatchSize is the number of chunks embedded per API call.
	BatchSize int `json:"batch_size" yaml:"batch_size" mapstructure:"batch_size" validate:"gt=0"`

	// Concurrency bounds parallel embedding calls during a rebuild.
	Concurrency int `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency" validate:"gt=0"`

	// QueryCacheTTL is how long query embeddings stay cached.
	QueryCacheTTL time.Duration `json:"query_cache_ttl" yaml:"query_cache_ttl" mapstructure:"query_cache_ttl"`
}

// CorpusConfig holds settings for loading and chunking documents.
type CorpusConfig struct {
	// DataDir is the directory of .txt, .md and .pdf files.
	DataDir string `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir" validate:"required"`

	// ChunkSize is the target chunk length in characters.
	ChunkSize int `json:"chunk_size" yaml:"chunk_size" mapstructure:"chunk_size" validate:"gt=0"`

	// ChunkOverlap is the overlap between consecutive chunks.
	ChunkOverlap int `json:"chunk_overlap" yaml:"chunk_overlap" mapstructure:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`

	// ConvertPDF enables PDF conversion through the markitdown container.
	ConvertPDF bool `json:"convert_pdf" yaml:"convert_pdf" mapstructure:"convert_pdf"`

	// ContainerRuntime pins the runtime used for conversion. Empty means
	// docker, then podman.
	ContainerRuntime string `json:"container_runtime,omitempty" yaml:"container_runtime,omitempty" mapstructure:"container_runtime" validate:"omitempty,oneof=docker podman"`

	// ConverterImage is the image PDFs are piped through.
	ConverterImage string `json:"converter_image" yaml:"converter_image" mapstructure:"converter_image" validate:"required"`
}

// IndexConfig holds settings for the persisted document index.
type IndexConfig struct {
	// Dir holds the index database.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir" validate:"required"`
}

// RetrievalConfig bounds how much retrieved text reaches the extractor.
type RetrievalConfig struct {
	// SearchDepth is the number of candidates requested from the index
	// before per-question caps are applied.
	SearchDepth int `json:"search_depth" yaml:"search_depth" mapstructure:"search_depth" validate:"gt=0"`

	// BroadCap applies to competitor and strategy questions.
	BroadCap int `json:"broad_cap" yaml:"broad_cap" mapstructure:"broad_cap" validate:"gt=0"`

	// TechnicalCap applies to architecture, security and performance questions.
	TechnicalCap int `json:"technical_cap" yaml:"technical_cap" mapstructure:"technical_cap" validate:"gt=0"`

	// DefaultCap applies to every other question.
	DefaultCap int `json:"default_cap" yaml:"default_cap" mapstructure:"default_cap" validate:"gt=0"`

	// Ceiling bounds every per-question cap.
	Ceiling int `json:"ceiling" yaml:"ceiling" mapstructure:"ceiling" validate:"gt=0"`

	// MaxExcerptChars truncates each excerpt.
	MaxExcerptChars int `json:"max_excerpt_chars" yaml:"max_excerpt_chars" mapstructure:"max_excerpt_chars" validate:"gt=0"`

	// ContextTokens is the generation model's context window. When set,
	// the ceiling shrinks so all excerpts fit in ContextTokens minus
	// ReservedTokens.
	ContextTokens int `json:"context_tokens,omitempty" yaml:"context_tokens,omitempty" mapstructure:"context_tokens" validate:"gte=0"`

	// ReservedTokens is kept free for instructions and the answer.
	ReservedTokens int `json:"reserved_tokens,omitempty" yaml:"reserved_tokens,omitempty" mapstructure:"reserved_tokens" validate:"gte=0"`
}

// RequiredSourceRule demands a citation to Source whenever the request
// contains any of the Triggers.
type RequiredSourceRule struct {
	Triggers []string `json:"triggers" yaml:"triggers" mapstructure:"triggers" validate:"required,min=1"`
	Source   string   `json:"source" yaml:"source" mapstructure:"source" validate:"required"`
	Label    string   `json:"label" yaml:"label" mapstructure:"label"`
}

// VerifierConfig tunes the verifier's policy tables.
type VerifierConfig struct {
	// PositivePhrases extend the built-in positive-sentiment allowlist.
	PositivePhrases []string `json:"positive_phrases,omitempty" yaml:"positive_phrases,omitempty" mapstructure:"positive_phrases"`

	// FalsePositivePatterns extend the built-in known-false-positive list.
	FalsePositivePatterns []string `json:"false_positive_patterns,omitempty" yaml:"false_positive_patterns,omitempty" mapstructure:"false_positive_patterns"`

	// ReplaceDefaults drops the built-in tables and uses only the phrases above.
	ReplaceDefaults bool `json:"replace_defaults" yaml:"replace_defaults" mapstructure:"replace_defaults"`

	// RequiredSources lists request-triggered source requirements. Empty
	// means the built-in next-week rule.
	RequiredSources []RequiredSourceRule `json:"required_sources,omitempty" yaml:"required_sources,omitempty" mapstructure:"required_sources" validate:"dive"`
}

// LogConfig selects the logger.
type LogConfig struct {
	Level       string `json:"level" yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Development bool   `json:"development" yaml:"development" mapstructure:"development"`
}

// ServerConfig holds settings for the HTTP wrapper.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr" validate:"required"`
}

// Config groups every setting of the application.
type Config struct {
	AI        AIConfig        `json:"ai" yaml:"ai" mapstructure:"ai"`
	Embedding EmbeddingConfig `json:"embedding" yaml:"embedding" mapstructure:"embedding"`
	Corpus    CorpusConfig    `json:"corpus" yaml:"corpus" mapstructure:"corpus"`
	Index     IndexConfig     `json:"index" yaml:"index" mapstructure:"index"`
	Retrieval RetrievalConfig `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Verifier  VerifierConfig  `json:"verifier" yaml:"verifier" mapstructure:"verifier"`
	Log       LogConfig       `json:"log" yaml:"log" mapstructure:"log"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
}

// DefaultRetrievalConfig returns the caps the system was tuned with.
func DefaultRetrievalConfig() RetrievalConfig {
	return RetrievalConfig{
		SearchDepth:     20,
		BroadCap:        7,
		TechnicalCap:    8,
		DefaultCap:      12,
		Ceiling:         8,
		MaxExcerptChars: 900,
	}
}

// DefaultConfig returns the configuration used when no file or
// environment override is present.
func DefaultConfig() Config {
	return Config{
		AI: AIConfig{
			Model:            "gpt-4o-mini",
			MaxRetries:       3,
			Timeout:          2 * time.Minute,
			DraftTemperature: 0.3,
		},
		Embedding: EmbeddingConfig{
			Model:         "text-embedding-3-small",
			BatchSize:     64,
			Concurrency:   4,
			QueryCacheTTL: 30 * time.Minute,
		},
		Corpus: CorpusConfig{
			DataDir:        "data",
			ChunkSize:      1000,
			ChunkOverlap:   200,
			ConverterImage: "markitdown:latest",
		},
		Index: IndexConfig{
			Dir: "index",
		},
		Retrieval: DefaultRetrievalConfig(),
		Log: LogConfig{
			Level: "info",
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}
