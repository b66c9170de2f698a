package matcher_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"gloveiq-backend/internal/catalog"
	"gloveiq-backend/internal/matcher"
)

func TestTokenize(t *testing.T) {
	tokens := matcher.Tokenize("Rawlings PRO204-2CBG, I-web!")
	assert.Equal(t, []string{"rawlings", "pro204", "2cbg", "web"}, tokens)
}

func TestTokenize_DropsShortTokens(t *testing.T) {
	assert.Empty(t, matcher.Tokenize("a b c !"))
}

func TestEmbed_UnitLength(t *testing.T) {
	vec := matcher.Embed("rawlings heart of the hide pro204")
	assert.Len(t, vec, matcher.EmbeddingWidth)

	var norm float64
	for _, v := range vec {
		norm += v * v
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-9)
}

func TestEmbed_EmptyText(t *testing.T) {
	vec := matcher.Embed("!!")
	for _, v := range vec {
		assert.Zero(t, v)
	}
}

func TestCosine_IdenticalText(t *testing.T) {
	a := matcher.Embed("wilson a2000 1786 h web")
	b := matcher.Embed("wilson a2000 1786 h web")
	assert.InDelta(t, 1.0, matcher.Cosine(a, b), 1e-9)
}

func testCatalog() *catalog.Catalog {
	return catalog.New(catalog.Tables{
		Brands: []catalog.Brand{
			{Key: "rawlings", Name: "Rawlings"},
			{Key: "wilson", Name: "Wilson"},
		},
		Families: []catalog.Family{
			{Key: "hoh", BrandKey: "rawlings", Name: "Heart of the Hide"},
			{Key: "a2000", BrandKey: "wilson", Name: "A2000"},
		},
		Patterns: []catalog.Pattern{
			{Key: "204", Name: "PRO204 11.5", Position: "infield"},
			{Key: "1786", Name: "A2000 1786 11.5", Position: "infield"},
		},
		Variants: []catalog.Variant{
			{ID: "v1", BrandKey: "rawlings", FamilyKey: "hoh", PatternKey: "204", ModelCode: "PRO204-2CBG", Web: "I-web", Leather: "steerhide", MadeIn: "Philippines", Year: 2023},
			{ID: "v2", BrandKey: "wilson", FamilyKey: "a2000", PatternKey: "1786", ModelCode: "WBW100974", Web: "H-web", Leather: "Pro Stock", MadeIn: "Vietnam", Year: 2024},
		},
	})
}

func TestRank_ExactDescriptionWins(t *testing.T) {
	cat := testCatalog()
	m := matcher.New(cat)

	v1, _ := cat.VariantByID("v1")
	matches := m.Rank(cat.DescribeVariant(v1))

	assert.Equal(t, "v1", matches[0].Variant.ID)
	assert.InDelta(t, 1.0, matches[0].Similarity, 1e-9)
	assert.Greater(t, matches[0].Similarity, matches[1].Similarity)
}

func TestChoose_DeclaredVariantWins(t *testing.T) {
	cat := testCatalog()
	m := matcher.New(cat)
	matches := m.Rank("wilson a2000 h web pro stock")

	chosen, ok := m.Choose("v1", matches)
	assert.True(t, ok)
	assert.Equal(t, "v1", chosen.ID)
}

func TestChoose_UnknownDeclaredFallsBackToTopNeighbor(t *testing.T) {
	cat := testCatalog()
	m := matcher.New(cat)
	matches := m.Rank("wilson a2000 1786 h web pro stock vietnam")

	chosen, ok := m.Choose("does-not-exist", matches)
	assert.True(t, ok)
	assert.Equal(t, "v2", chosen.ID)
}

func TestConfirmed(t *testing.T) {
	assert.True(t, matcher.Confirmed(true, nil))

	high := []matcher.Match{{Similarity: 0.95}}
	low := []matcher.Match{{Similarity: 0.5}}
	assert.True(t, matcher.Confirmed(false, high))
	assert.False(t, matcher.Confirmed(false, low))
	assert.False(t, matcher.Confirmed(false, nil))
}
