// Package config loads and validates the engine's configuration: a
// struct tagged for both YAML unmarshalling and go-playground/validator,
// with a compiled-in default document shipped via go:embed so a caller
// never needs a config file on disk just to get sane defaults.
package config

import (
	_ "embed"
	"fmt"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/bm25search/services/bm25search/tokenize"
)

//go:embed default.yaml
var defaultYAML []byte

// Config holds the engine's tunable parameters.
type Config struct {
	// K1 controls BM25 term-frequency saturation.
	K1 float32 `yaml:"k1" validate:"gt=0"`

	// B controls BM25 document-length normalisation, in [0, 1].
	B float32 `yaml:"b" validate:"gte=0,lte=1"`

	// Stemmer names the snowball language stemmer (or "none").
	Stemmer tokenize.Stemmer `yaml:"stemmer" validate:"required"`

	// Stopwords is either an explicit list of surface forms or a single
	// recognised language name (e.g. "english").
	Stopwords []string `yaml:"stopwords"`

	// Ignore is the regex applied before splitting.
	Ignore string `yaml:"ignore"`

	// StripAccents enables Unicode NFKD accent stripping.
	StripAccents bool `yaml:"strip_accents"`

	// Lower enables lowercasing before splitting.
	Lower bool `yaml:"lower"`

	// IngestBatchSize is the default batch size for document ingestion.
	IngestBatchSize uint32 `yaml:"ingest_batch_size" validate:"gt=0"`

	// QueryBatchSize is the default batch size for query execution.
	QueryBatchSize uint32 `yaml:"query_batch_size" validate:"gt=0"`

	// TopK is the default number of results returned per query.
	TopK uint32 `yaml:"top_k" validate:"gt=0"`

	// TopKToken is the default posting-list truncation for document
	// queries, trading recall for latency on long posting lists.
	TopKToken uint32 `yaml:"top_k_token" validate:"gt=0"`

	// TopKTokenGraph is the default posting-list truncation used on the
	// graph re-ranking path, which defaults smaller (10000) than the
	// plain document path (30000) since graph expansion multiplies the
	// effective work per truncated posting.
	TopKTokenGraph uint32 `yaml:"top_k_token_graph" validate:"gt=0"`

	// NJobs is the worker pool size; -1 means "all cores".
	NJobs int32 `yaml:"n_jobs"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Default returns the compiled-in default configuration, loaded from the
// embedded default.yaml rather than constructed in Go, so the
// authoritative defaults live in one place readable outside the binary
// too.
func Default() Config {
	cfg, err := Parse(defaultYAML)
	if err != nil {
		// The embedded default document is a build-time invariant: if it
		// fails to parse or validate, every binary built from this
		// module is broken, so this is the one place a panic is
		// appropriate rather than a returned error.
		panic(fmt.Sprintf("config: embedded default.yaml is invalid: %v", err))
	}
	return cfg
}

// Parse decodes and validates YAML config bytes.
func Parse(data []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// ResolveStopwords expands a language name to its built-in list, or
// returns Stopwords unchanged if it is not a recognised language name
// (treated as an explicit list of surface forms in that case).
func (c Config) ResolveStopwords() []string {
	if len(c.Stopwords) == 1 {
		if words, ok := tokenize.StopwordsForLanguage(c.Stopwords[0]); ok {
			return words
		}
	}
	return c.Stopwords
}

// TokenizeConfig projects the tokeniser-relevant fields into a
// tokenize.Config, resolving any language-named stopword list first.
func (c Config) TokenizeConfig() tokenize.Config {
	return tokenize.Config{
		Lower:        c.Lower,
		StripAccents: c.StripAccents,
		Ignore:       c.Ignore,
		Stopwords:    c.ResolveStopwords(),
		Stemmer:      c.Stemmer,
	}
}
