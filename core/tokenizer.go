package core

import "strings"

// TokenDelimiters are the bytes that separate tokens on a command line.
const TokenDelimiters = " \t\r\n\a"

// Tokenizer splits command lines into tokens on runs of delimiter bytes.
type Tokenizer struct {
	initialCap int
	growth     int
}

// NewTokenizer creates a Tokenizer whose token buffer starts at initialCap
// entries and is multiplied by growthFactor whenever it fills, mirroring the
// line buffer's policy.
func NewTokenizer(initialCap, growthFactor int) *Tokenizer {
	return &Tokenizer{
		initialCap: initialCap,
		growth:     growthFactor,
	}
}

// Split breaks line into tokens. Runs of delimiters collapse, so the result
// never contains empty tokens; all-delimiter input yields none at all. Tokens
// are views into line's storage, in left-to-right order.
func (t *Tokenizer) Split(line string) []string {
	tokens := make([]string, 0, t.initialCap)

	start := -1
	for i := 0; i < len(line); i++ {
		if strings.IndexByte(TokenDelimiters, line[i]) < 0 {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = t.push(tokens, line[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = t.push(tokens, line[start:])
	}

	return tokens
}

func (t *Tokenizer) push(tokens []string, token string) []string {
	if len(tokens) == cap(tokens) {
		grown := make([]string, len(tokens), cap(tokens)*t.growth)
		copy(grown, tokens)
		tokens = grown
	}
	return append(tokens, token)
}
