// Package valuation selects comparable sales for an identified glove and
// turns them into percentile-based price statistics.
package valuation

import (
	"gloveiq-backend/internal/catalog"
)

const (
	SourceVariant         = "variant"
	SourceVectorNeighbors = "vector_neighbors"
	SourceBrandFallback   = "brand_fallback"
	SourceInsufficient    = "insufficient"
)

// NeighborWindow is how many top-ranked variants feed the neighbor comp set.
const NeighborWindow = 5

type Selection struct {
	Comps  []catalog.Sale
	Source string
}

// SelectComps picks the comp set by precedence: enough direct sales for the
// chosen variant win, then sales pooled across the nearest neighbors, then a
// brand-level fallback. When nothing clears its floor the selection is marked
// insufficient and carries whatever brand-level sales remain, possibly none.
func SelectComps(cat *catalog.Catalog, chosenVariantID string, neighborIDs []string, brandKey string) Selection {
	direct := cat.SalesForVariant(chosenVariantID)
	if len(direct) >= 3 {
		return Selection{Comps: direct, Source: SourceVariant}
	}

	if len(neighborIDs) > NeighborWindow {
		neighborIDs = neighborIDs[:NeighborWindow]
	}
	var pooled []catalog.Sale
	for _, id := range neighborIDs {
		pooled = append(pooled, cat.SalesForVariant(id)...)
	}
	if len(pooled) >= 5 {
		return Selection{Comps: pooled, Source: SourceVectorNeighbors}
	}

	brand := cat.SalesForBrand(brandKey)
	if len(brand) >= 4 {
		return Selection{Comps: brand, Source: SourceBrandFallback}
	}

	return Selection{Comps: brand, Source: SourceInsufficient}
}
