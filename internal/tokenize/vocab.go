// Package tokenize implements deterministic BERT-style WordPiece subword
// tokenization against a loaded vocabulary.
package tokenize

import (
	"bufio"
	"os"
	"strings"

	"github.com/webindex/webindex/internal/errors"
)

// Default special-token ids, used when the vocabulary does not otherwise
// define them.
const (
	DefaultCLSID = 101
	DefaultSEPID = 102
	DefaultUNKID = 100
)

const (
	clsToken = "[CLS]"
	sepToken = "[SEP]"
	unkToken = "[UNK]"
)

// Vocabulary is an immutable, loaded-once WordPiece vocabulary. It is safe
// for concurrent read-only use by any number of goroutines.
type Vocabulary struct {
	tokens []string
	ids    map[string]int

	clsID int
	sepID int
	unkID int
}

// LoadVocabulary reads a newline-delimited UTF-8 vocabulary file, one token
// per line in id order, and builds the lookup table.
func LoadVocabulary(path string) (*Vocabulary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(errors.ErrCodeVocabularyMissing, "failed to open vocabulary file", err)
	}
	defer f.Close()

	var tokens []string
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		tokens = append(tokens, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(errors.ErrCodeVocabularyMissing, "failed to read vocabulary file", err)
	}
	if len(tokens) == 0 {
		return nil, errors.New(errors.ErrCodeVocabularyMissing, "vocabulary file is empty", nil)
	}

	return NewVocabulary(tokens), nil
}

// NewVocabulary builds a Vocabulary from an ordered token list.
func NewVocabulary(tokens []string) *Vocabulary {
	ids := make(map[string]int, len(tokens))
	for id, tok := range tokens {
		ids[tok] = id
	}

	v := &Vocabulary{
		tokens: tokens,
		ids:    ids,
		clsID:  DefaultCLSID,
		sepID:  DefaultSEPID,
		unkID:  DefaultUNKID,
	}
	if id, ok := ids[clsToken]; ok {
		v.clsID = id
	}
	if id, ok := ids[sepToken]; ok {
		v.sepID = id
	}
	if id, ok := ids[unkToken]; ok {
		v.unkID = id
	}
	return v
}

// Lookup returns the id for a token and whether it was found.
func (v *Vocabulary) Lookup(token string) (int, bool) {
	id, ok := v.ids[token]
	return id, ok
}

// Size returns the number of tokens in the vocabulary.
func (v *Vocabulary) Size() int {
	return len(v.tokens)
}

func (v *Vocabulary) CLSID() int { return v.clsID }
func (v *Vocabulary) SEPID() int { return v.sepID }
func (v *Vocabulary) UNKID() int { return v.unkID }

// normalizeQuotes replaces curly single quotes with ASCII apostrophes and
// curly double quotes with ASCII double quotes, per the tokenizer's
// preprocessing contract.
func normalizeQuotes(s string) string {
	replacer := strings.NewReplacer(
		"‘", "'", "’", "'",
		"“", "\"", "”", "\"",
	)
	return replacer.Replace(s)
}
