// Package catalog holds the read-only seed tables the appraisal pipeline
// matches against: brands, families, patterns, variants and historical sales.
// Tables are loaded once at startup and never mutated.
package catalog

import (
	"strings"
	"time"
)

type Brand struct {
	Key  string `json:"brand_key"`
	Name string `json:"name"`
}

type Family struct {
	Key      string `json:"family_key"`
	BrandKey string `json:"brand_key"`
	Name     string `json:"name"`
}

type Pattern struct {
	Key      string `json:"pattern_key"`
	Name     string `json:"name"`
	Position string `json:"position"`
}

type Variant struct {
	ID         string  `json:"variant_id"`
	BrandKey   string  `json:"brand_key"`
	FamilyKey  string  `json:"family_key"`
	PatternKey string  `json:"pattern_key"`
	ModelCode  string  `json:"model_code"`
	Web        string  `json:"web"`
	Leather    string  `json:"leather"`
	MadeIn     string  `json:"made_in"`
	Year       int     `json:"year"`
	MSRP       float64 `json:"msrp"`
}

type Sale struct {
	SaleID     string    `json:"sale_id"`
	VariantID  string    `json:"variant_id"`
	BrandKey   string    `json:"brand_key"`
	SaleDate   time.Time `json:"sale_date"`
	PriceUSD   float64   `json:"price_usd"`
	Source     string    `json:"source"`
	IsReferral bool      `json:"is_referral"`
}

type Artifact struct {
	ID        string `json:"artifact_id"`
	VariantID string `json:"variant_id"`
	Notes     string `json:"notes"`
}

type Tables struct {
	Brands    []Brand    `json:"brands"`
	Families  []Family   `json:"families"`
	Patterns  []Pattern  `json:"patterns"`
	Variants  []Variant  `json:"variants"`
	Sales     []Sale     `json:"sales"`
	Artifacts []Artifact `json:"artifacts"`
}

type Catalog struct {
	Tables

	variantByID    map[string]*Variant
	brandByKey     map[string]*Brand
	familyByKey    map[string]*Family
	patternByKey   map[string]*Pattern
	salesByVariant map[string][]Sale
	salesByBrand   map[string][]Sale
	brandWords     map[string]string // lowercased brand name/key -> brand key
}

func New(t Tables) *Catalog {
	c := &Catalog{
		Tables:         t,
		variantByID:    make(map[string]*Variant, len(t.Variants)),
		brandByKey:     make(map[string]*Brand, len(t.Brands)),
		familyByKey:    make(map[string]*Family, len(t.Families)),
		patternByKey:   make(map[string]*Pattern, len(t.Patterns)),
		salesByVariant: make(map[string][]Sale),
		salesByBrand:   make(map[string][]Sale),
		brandWords:     make(map[string]string),
	}
	for i := range t.Variants {
		c.variantByID[t.Variants[i].ID] = &t.Variants[i]
	}
	for i := range t.Brands {
		b := &t.Brands[i]
		c.brandByKey[b.Key] = b
		c.brandWords[strings.ToLower(b.Name)] = b.Key
		c.brandWords[strings.ToLower(b.Key)] = b.Key
	}
	for i := range t.Families {
		c.familyByKey[t.Families[i].Key] = &t.Families[i]
	}
	for i := range t.Patterns {
		c.patternByKey[t.Patterns[i].Key] = &t.Patterns[i]
	}
	for _, s := range t.Sales {
		c.salesByVariant[s.VariantID] = append(c.salesByVariant[s.VariantID], s)
		c.salesByBrand[s.BrandKey] = append(c.salesByBrand[s.BrandKey], s)
	}
	return c
}

func (c *Catalog) VariantByID(id string) (*Variant, bool) {
	v, ok := c.variantByID[id]
	return v, ok
}

func (c *Catalog) SalesForVariant(id string) []Sale {
	return c.salesByVariant[id]
}

func (c *Catalog) SalesForBrand(brandKey string) []Sale {
	return c.salesByBrand[brandKey]
}

// BrandKeyFor resolves a brand name or key, case-insensitively, to its key.
func (c *Catalog) BrandKeyFor(name string) (string, bool) {
	key, ok := c.brandWords[strings.ToLower(strings.TrimSpace(name))]
	return key, ok
}

// BrandsMentioned returns the distinct brand keys whose name or key appears
// in the given free text.
func (c *Catalog) BrandsMentioned(text string) []string {
	lower := strings.ToLower(text)
	seen := make(map[string]bool)
	var keys []string
	for _, b := range c.Brands {
		if strings.Contains(lower, strings.ToLower(b.Name)) || strings.Contains(lower, strings.ToLower(b.Key)) {
			if !seen[b.Key] {
				seen[b.Key] = true
				keys = append(keys, b.Key)
			}
		}
	}
	return keys
}

// DescribeVariant concatenates a variant's descriptive fields into the text
// its matching embedding is built from.
func (c *Catalog) DescribeVariant(v *Variant) string {
	parts := []string{v.ModelCode, v.Web, v.Leather, v.MadeIn}
	if b, ok := c.brandByKey[v.BrandKey]; ok {
		parts = append([]string{b.Name}, parts...)
	}
	if f, ok := c.familyByKey[v.FamilyKey]; ok {
		parts = append(parts, f.Name)
	}
	if p, ok := c.patternByKey[v.PatternKey]; ok {
		parts = append(parts, p.Name)
	}
	return strings.Join(parts, " ")
}
