// Package tokenize implements the text-normalisation contract shared by
// document ingestion and query execution: tokenise(text, config) -> ordered
// sequence of terms. The same configuration must be used for documents and
// queries, so a Config is persisted alongside an index and reused verbatim.
package tokenize

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/kljensen/snowball"
)

// Stemmer names the morphological reduction applied to each surviving term.
// StemmerNone disables stemming; the remaining values name a snowball
// language stemmer (snowball.Stem's lang argument), with StemmerPorter as
// an alias for "english" (snowball's English stemmer, the Porter2 revision
// of Porter's algorithm, kept under that name because callers commonly
// spell it that way).
type Stemmer string

const (
	StemmerNone       Stemmer = "none"
	StemmerPorter     Stemmer = "porter"
	StemmerDanish     Stemmer = "danish"
	StemmerDutch      Stemmer = "dutch"
	StemmerEnglish    Stemmer = "english"
	StemmerFinnish    Stemmer = "finnish"
	StemmerFrench     Stemmer = "french"
	StemmerGerman     Stemmer = "german"
	StemmerHungarian  Stemmer = "hungarian"
	StemmerNorwegian  Stemmer = "norwegian"
	StemmerRomanian   Stemmer = "romanian"
	StemmerRussian    Stemmer = "russian"
	StemmerSpanish    Stemmer = "spanish"
	StemmerSwedish    Stemmer = "swedish"
	StemmerTurkish    Stemmer = "turkish"
)

// snowballLang maps a Stemmer to the language name snowball.Stem expects.
var snowballLang = map[Stemmer]string{
	StemmerPorter:    "english",
	StemmerEnglish:   "english",
	StemmerDanish:    "danish",
	StemmerDutch:     "dutch",
	StemmerFinnish:   "finnish",
	StemmerFrench:    "french",
	StemmerGerman:    "german",
	StemmerHungarian: "hungarian",
	StemmerNorwegian: "norwegian",
	StemmerRomanian:  "romanian",
	StemmerRussian:   "russian",
	StemmerSpanish:   "spanish",
	StemmerSwedish:   "swedish",
	StemmerTurkish:   "turkish",
}

// DefaultIgnorePattern matches anything that is not a lowercase ASCII letter,
// collapsing it (and runs of it) to whitespace before splitting.
const DefaultIgnorePattern = `(\.|[^a-z])+`

// Config enumerates the tokeniser options, applied in this fixed order:
// lower, strip_accents, ignore, split, stopwords, stemmer.
type Config struct {
	// Lower lowercases the input before splitting.
	Lower bool `yaml:"lower" json:"lower"`

	// StripAccents runs Unicode NFKD normalisation and drops combining
	// marks, so "café" and "cafe" tokenise identically.
	StripAccents bool `yaml:"strip_accents" json:"strip_accents"`

	// Ignore is a regular expression; matches are replaced with whitespace
	// before splitting. An empty string disables this step.
	Ignore string `yaml:"ignore" json:"ignore"`

	// Stopwords is the set of surface forms dropped after splitting.
	Stopwords []string `yaml:"stopwords" json:"stopwords"`

	// Stemmer names the stemming algorithm applied to surviving terms.
	Stemmer Stemmer `yaml:"stemmer" json:"stemmer"`
}

// DefaultConfig returns lower + strip_accents + english stopwords +
// porter stemmer + the standard ignore pattern.
func DefaultConfig() Config {
	return Config{
		Lower:        true,
		StripAccents: true,
		Ignore:       DefaultIgnorePattern,
		Stopwords:    EnglishStopwords,
		Stemmer:      StemmerPorter,
	}
}

// Tokenizer compiles a Config once and tokenises repeatedly; it is pure
// (stateless across calls) and safe for concurrent use from multiple
// goroutines, matching the indexer and query executor's fan-out over
// batches of documents or queries.
type Tokenizer struct {
	cfg       Config
	ignoreRe  *regexp.Regexp
	stopwords map[string]struct{}
	lang      string // resolved snowball language, "" if no stemming

	// mu guards nothing mutable today; kept so future caching (e.g. a
	// stem memoisation map) can be added without changing the exported
	// surface.
	mu sync.Mutex
}

// New compiles a Config into a Tokenizer, validating the ignore regex and
// stemmer name up front so later Tokenize calls cannot fail.
func New(cfg Config) (*Tokenizer, error) {
	t := &Tokenizer{cfg: cfg}

	if cfg.Ignore != "" {
		re, err := regexp.Compile(cfg.Ignore)
		if err != nil {
			return nil, fmt.Errorf("tokenize: invalid ignore pattern %q: %w", cfg.Ignore, err)
		}
		t.ignoreRe = re
	}

	if len(cfg.Stopwords) > 0 {
		set := make(map[string]struct{}, len(cfg.Stopwords))
		for _, w := range cfg.Stopwords {
			set[w] = struct{}{}
		}
		t.stopwords = set
	}

	switch cfg.Stemmer {
	case "", StemmerNone:
		// no stemming
	default:
		lang, ok := snowballLang[cfg.Stemmer]
		if !ok {
			return nil, fmt.Errorf("tokenize: unknown stemmer %q", cfg.Stemmer)
		}
		t.lang = lang
	}

	return t, nil
}

// Config returns the compiled configuration, for persisting alongside an
// index so future tokenisation calls (including query-time ones) use the
// identical pipeline.
func (t *Tokenizer) Config() Config { return t.cfg }

// Tokenize normalises text into an ordered sequence of terms. Empty
// output is valid and simply means the document or query contributed no
// terms.
func (t *Tokenizer) Tokenize(text string) []string {
	if t.cfg.Lower {
		text = strings.ToLower(text)
	}

	if t.cfg.StripAccents {
		text = stripAccents(text)
	}

	if t.ignoreRe != nil {
		text = t.ignoreRe.ReplaceAllString(text, " ")
	}

	fields := strings.FieldsFunc(text, func(r rune) bool {
		return unicode.IsSpace(r)
	})

	terms := make([]string, 0, len(fields))
	for _, f := range fields {
		if f == "" {
			continue
		}
		if t.stopwords != nil {
			if _, drop := t.stopwords[f]; drop {
				continue
			}
		}
		terms = append(terms, t.stem(f))
	}
	return terms
}

// stem reduces a single term to its stem, or returns it unchanged if no
// stemmer is configured or the snowball library fails to stem it (snowball
// only errors on an unknown language, which New already validated against,
// so this path is defensive rather than expected).
func (t *Tokenizer) stem(term string) string {
	if t.lang == "" {
		return term
	}
	stemmed, err := snowball.Stem(term, t.lang, true)
	if err != nil {
		return term
	}
	return stemmed
}

// stripAccents applies Unicode NFKD decomposition and removes combining
// marks (category Mn), so accented letters fold to their base form.
func stripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
