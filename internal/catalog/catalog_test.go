package catalog_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"gloveiq-backend/internal/catalog"
)

func TestLoadSeed(t *testing.T) {
	cat, err := catalog.LoadSeed()
	require.NoError(t, err)

	assert.NotEmpty(t, cat.Brands)
	assert.NotEmpty(t, cat.Variants)
	assert.NotEmpty(t, cat.Sales)

	// Every seed sale must reference a known variant and brand.
	for _, s := range cat.Sales {
		_, ok := cat.VariantByID(s.VariantID)
		assert.True(t, ok, "sale %s references unknown variant %s", s.SaleID, s.VariantID)
		_, ok = cat.BrandKeyFor(s.BrandKey)
		assert.True(t, ok, "sale %s references unknown brand %s", s.SaleID, s.BrandKey)
	}
	for _, v := range cat.Variants {
		assert.NotEmpty(t, cat.SalesForVariant(v.ID), "variant %s has no sales", v.ID)
	}
}

func TestBrandKeyFor(t *testing.T) {
	cat, err := catalog.LoadSeed()
	require.NoError(t, err)

	key, ok := cat.BrandKeyFor("Rawlings")
	require.True(t, ok)
	assert.Equal(t, "rawlings", key)

	key, ok = cat.BrandKeyFor("  rawlings ")
	require.True(t, ok)
	assert.Equal(t, "rawlings", key)

	_, ok = cat.BrandKeyFor("nokona")
	assert.False(t, ok)
}

func TestBrandsMentioned(t *testing.T) {
	cat, err := catalog.LoadSeed()
	require.NoError(t, err)

	assert.Empty(t, cat.BrandsMentioned("well loved infield glove"))
	assert.Equal(t, []string{"rawlings"}, cat.BrandsMentioned("my Rawlings heart of the hide"))

	both := cat.BrandsMentioned("not sure if Rawlings or Wilson")
	assert.ElementsMatch(t, []string{"rawlings", "wilson"}, both)
}

func TestDescribeVariant(t *testing.T) {
	cat, err := catalog.LoadSeed()
	require.NoError(t, err)

	v, ok := cat.VariantByID("var_hoh_204_1")
	require.True(t, ok)
	desc := cat.DescribeVariant(v)
	assert.Contains(t, desc, "Rawlings")
	assert.Contains(t, desc, v.ModelCode)
}

func TestLoadXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "library.xlsx")
	writeWorkbook(t, path)

	cat, err := catalog.LoadXLSX(path)
	require.NoError(t, err)

	require.Len(t, cat.Brands, 1)
	assert.Equal(t, "rawlings", cat.Brands[0].Key)

	v, ok := cat.VariantByID("var_1")
	require.True(t, ok)
	assert.Equal(t, "PRO204-2CBG", v.ModelCode)
	assert.Equal(t, 2023, v.Year)
	assert.InDelta(t, 279.95, v.MSRP, 1e-9)

	sales := cat.SalesForVariant("var_1")
	require.Len(t, sales, 2)
	assert.InDelta(t, 185.0, sales[0].PriceUSD, 1e-9)
	assert.Equal(t, 2026, sales[1].SaleDate.Year())
}

func TestLoadXLSX_BadSaleRowFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	f := excelize.NewFile()
	defer f.Close()
	writeSheet(t, f, "Brands", [][]any{{"brand_key", "name"}})
	writeSheet(t, f, "Families", [][]any{{"family_key", "brand_key", "name"}})
	writeSheet(t, f, "Patterns", [][]any{{"pattern_key", "name", "position"}})
	writeSheet(t, f, "Variants", [][]any{{"variant_id", "brand_key"}})
	writeSheet(t, f, "Sales", [][]any{
		{"sale_id", "variant_id", "brand_key", "sale_date", "price_usd", "source"},
		{"s1", "var_1", "rawlings", "2026-05-01", "not-a-price", "ebay"},
	})
	require.NoError(t, f.SaveAs(path))

	_, err := catalog.LoadXLSX(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "price_usd")
}

func writeSheet(t *testing.T, f *excelize.File, sheet string, rows [][]any) {
	t.Helper()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
}

func writeWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	writeSheet(t, f, "Brands", [][]any{
		{"brand_key", "name"},
		{"rawlings", "Rawlings"},
	})
	writeSheet(t, f, "Families", [][]any{
		{"family_key", "brand_key", "name"},
		{"hoh", "rawlings", "Heart of the Hide"},
	})
	writeSheet(t, f, "Patterns", [][]any{
		{"pattern_key", "name", "position"},
		{"204", "PRO204 11.5", "infield"},
	})
	writeSheet(t, f, "Variants", [][]any{
		{"variant_id", "brand_key", "family_key", "pattern_key", "model_code", "web", "leather", "made_in", "year", "msrp"},
		{"var_1", "rawlings", "hoh", "204", "PRO204-2CBG", "I-web", "Heart of the Hide", "Philippines", "2023", "279.95"},
	})
	writeSheet(t, f, "Sales", [][]any{
		{"sale_id", "variant_id", "brand_key", "sale_date", "price_usd", "source", "is_referral"},
		{"s1", "var_1", "rawlings", "2026-03-10", "185", "ebay", "false"},
		{"s2", "var_1", "rawlings", "2026-04-22", "199.5", "sidelineswap", "true"},
	})

	require.NoError(t, f.SaveAs(path))
}
