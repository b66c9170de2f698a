package matcher

import (
	"sort"

	"gloveiq-backend/internal/catalog"
)

// ConfirmThreshold is the top-neighbor similarity above which a variant is
// treated as confirmed even when the model did not declare it.
const ConfirmThreshold = 0.88

// TopK is how many ranked neighbors a match run returns.
const TopK = 12

type Match struct {
	Variant    *catalog.Variant
	Similarity float64
}

// Matcher holds precomputed embeddings for every catalog variant, in catalog
// order. Construction is the only expensive step; ranking is a scan.
type Matcher struct {
	catalog    *catalog.Catalog
	variants   []*catalog.Variant
	embeddings [][]float64
}

func New(cat *catalog.Catalog) *Matcher {
	m := &Matcher{catalog: cat}
	for i := range cat.Variants {
		v := &cat.Variants[i]
		m.variants = append(m.variants, v)
		m.embeddings = append(m.embeddings, Embed(cat.DescribeVariant(v)))
	}
	return m
}

// Rank scores every catalog variant against the evidence text and returns the
// top variants by descending cosine similarity. Ties keep catalog order.
func (m *Matcher) Rank(evidenceText string) []Match {
	query := Embed(evidenceText)

	matches := make([]Match, len(m.variants))
	for i, v := range m.variants {
		matches[i] = Match{Variant: v, Similarity: Cosine(query, m.embeddings[i])}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})
	if len(matches) > TopK {
		matches = matches[:TopK]
	}
	return matches
}

// Choose picks the working variant: the model-declared variant when it is
// known to the catalog, otherwise the top-ranked neighbor. The second return
// reports whether any variant could be chosen at all.
func (m *Matcher) Choose(declaredID string, matches []Match) (*catalog.Variant, bool) {
	if declaredID != "" {
		if v, ok := m.catalog.VariantByID(declaredID); ok {
			return v, true
		}
	}
	if len(matches) > 0 {
		return matches[0].Variant, true
	}
	return nil, false
}

// Confirmed reports whether the working variant counts as confirmed: either
// the model declared it, or the top similarity clears ConfirmThreshold.
func Confirmed(declared bool, matches []Match) bool {
	if declared {
		return true
	}
	return len(matches) > 0 && matches[0].Similarity > ConfirmThreshold
}
