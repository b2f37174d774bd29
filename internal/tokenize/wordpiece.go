package tokenize

import (
	"strings"
	"unicode"
)

// WordRange is a half-open [Start, End) range into a content-token stream,
// identifying the tokens produced by one surface word.
type WordRange struct {
	Start int
	End   int
}

// Tokenizer performs deterministic BERT-style WordPiece tokenization against
// a loaded Vocabulary.
type Tokenizer struct {
	vocab *Vocabulary
}

// NewTokenizer wraps a Vocabulary in a Tokenizer.
func NewTokenizer(vocab *Vocabulary) *Tokenizer {
	return &Tokenizer{vocab: vocab}
}

// CLSID returns the vocabulary's [CLS] id.
func (t *Tokenizer) CLSID() int { return t.vocab.CLSID() }

// SEPID returns the vocabulary's [SEP] id.
func (t *Tokenizer) SEPID() int { return t.vocab.SEPID() }

// UNKID returns the vocabulary's [UNK] id.
func (t *Tokenizer) UNKID() int { return t.vocab.UNKID() }

// Encode tokenizes text and returns a sequence that always begins with
// [CLS] and ends with [SEP].
func (t *Tokenizer) Encode(text string) []int {
	content := t.EncodeContent(text)
	ids := make([]int, 0, len(content)+2)
	ids = append(ids, t.vocab.CLSID())
	ids = append(ids, content...)
	ids = append(ids, t.vocab.SEPID())
	return ids
}

// EncodeContent tokenizes text and returns only the inner content tokens,
// without [CLS]/[SEP] framing. Used by the Chunker.
func (t *Tokenizer) EncodeContent(text string) []int {
	ids, _, _ := t.EncodeContentWithRanges(text)
	return ids
}

// EncodeContentWithRanges tokenizes text and additionally returns, for each
// surface word that produced at least one token, its original text and its
// half-open [token_start, token_end) range into the returned content-token
// stream. words and ranges are parallel slices.
func (t *Tokenizer) EncodeContentWithRanges(text string) (ids []int, words []string, ranges []WordRange) {
	normalized := normalizeQuotes(strings.ToLower(text))
	surfaceWords := strings.Fields(normalized)
	originalWords := strings.Fields(normalizeQuotes(text))

	for i, word := range surfaceWords {
		candidate := stripNonWord(word)
		if candidate == "" {
			continue
		}

		wordIDs := t.tokenizeWord(candidate)
		if len(wordIDs) == 0 {
			continue
		}

		start := len(ids)
		ids = append(ids, wordIDs...)
		end := len(ids)

		ranges = append(ranges, WordRange{Start: start, End: end})
		if i < len(originalWords) {
			words = append(words, originalWords[i])
		} else {
			words = append(words, word)
		}
	}

	return ids, words, ranges
}

// tokenizeWord applies the greedy longest-match-first subword resolution
// rule to a single lookup candidate (already lowercased and stripped).
//
// If any cursor position fails to find a matching vocabulary entry (with no
// sub-token emitted yet for that position), the whole word is abandoned and
// a single [UNK] is emitted in place of any sub-tokens already matched.
func (t *Tokenizer) tokenizeWord(word string) []int {
	if id, ok := t.vocab.Lookup(word); ok {
		return []int{id}
	}

	runes := []rune(word)
	var ids []int
	start := 0
	for start < len(runes) {
		end := len(runes)
		matched := false
		for end > start {
			piece := string(runes[start:end])
			if start > 0 {
				piece = "##" + piece
			}
			if id, ok := t.vocab.Lookup(piece); ok {
				ids = append(ids, id)
				start = end
				matched = true
				break
			}
			end--
		}
		if !matched {
			return []int{t.vocab.UNKID()}
		}
	}

	return ids
}

// stripNonWord removes non-word characters (anything that isn't a letter,
// digit, or underscore) from a whitespace-delimited word, forming the
// lookup candidate.
func stripNonWord(word string) string {
	var sb strings.Builder
	for _, r := range word {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
