package tokenize

import (
	"reflect"
	"testing"
)

func TestTokenize_Defaults(t *testing.T) {
	tok, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := tok.Tokenize("The cats SAT on the mat.")
	// "the" and "on" are stopwords; "cats" stems to "cat"; "sat"/"mat"
	// already minimal under porter.
	want := []string{"cat", "sat", "mat"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenize_EmptyInput(t *testing.T) {
	tok, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := tok.Tokenize("")
	if len(got) != 0 {
		t.Errorf("Tokenize(\"\") = %v, want empty", got)
	}
}

func TestTokenize_StripAccents(t *testing.T) {
	cfg := Config{Lower: true, StripAccents: true, Stemmer: StemmerNone}
	tok, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := tok.Tokenize("café")
	want := []string{"cafe"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize(café) = %v, want %v", got, want)
	}
}

func TestTokenize_NoStemmer(t *testing.T) {
	cfg := Config{Lower: true, Stemmer: StemmerNone}
	tok, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	got := tok.Tokenize("running runners")
	want := []string{"running", "runners"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokenize() = %v, want %v", got, want)
	}
}

func TestTokenize_SameConfigForQueriesAndDocuments(t *testing.T) {
	tok, err := New(DefaultConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	doc := tok.Tokenize("the cat sat")
	query := tok.Tokenize("cat")
	if !reflect.DeepEqual(query, []string{"cat"}) {
		t.Fatalf("query tokens = %v", query)
	}
	found := false
	for _, term := range doc {
		if term == query[0] {
			found = true
		}
	}
	if !found {
		t.Errorf("expected query term %q in document tokens %v", query[0], doc)
	}
}

func TestNew_InvalidIgnoreRegex(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ignore = "(unclosed"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for invalid ignore regex")
	}
}

func TestNew_UnknownStemmer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Stemmer = "klingon"
	if _, err := New(cfg); err == nil {
		t.Error("expected error for unknown stemmer")
	}
}
