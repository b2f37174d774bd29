package store

import "strings"

// bm25Tokenize implements the BM25 surface tokenizer (§4.6), distinct from
// WordPiece: lowercase, replace non-word characters with spaces, split on
// whitespace, drop tokens of length <= minLen. Must not reuse WordPiece ids.
func bm25Tokenize(text string, minLen int) []string {
	lowered := strings.ToLower(text)

	var sb strings.Builder
	sb.Grow(len(lowered))
	for _, r := range lowered {
		if isWordRune(r) {
			sb.WriteRune(r)
		} else {
			sb.WriteByte(' ')
		}
	}

	fields := strings.Fields(sb.String())
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) > minLen {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

func isWordRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_'
}
