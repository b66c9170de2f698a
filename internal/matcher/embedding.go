// Package matcher ranks catalog variants against fused appraisal evidence
// using a bag-of-hashed-tokens embedding. This is not a learned embedding:
// reproducibility and zero network dependency matter more here than retrieval
// quality, so the tokenization rule and hash function below are part of the
// matching contract.
package matcher

import (
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// EmbeddingWidth is the fixed dimensionality of the hashed token space.
const EmbeddingWidth = 256

// Tokenize lower-cases the text, maps every non-alphanumeric rune to a space,
// splits on spaces and keeps tokens of length >= 2.
func Tokenize(text string) []string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, text)

	var tokens []string
	for _, tok := range strings.Fields(mapped) {
		if len(tok) >= 2 {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// Embed accumulates token counts into FNV-1a 32 hash buckets modulo
// EmbeddingWidth and L2-normalizes the result.
func Embed(text string) []float64 {
	vec := make([]float64, EmbeddingWidth)
	for _, tok := range Tokenize(text) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		vec[h.Sum32()%EmbeddingWidth]++
	}

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}

// Cosine returns the cosine similarity of two vectors of equal length.
// Inputs from Embed are already unit-length, so this is a dot product with a
// defensive renormalization for anything else.
func Cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
