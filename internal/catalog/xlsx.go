package catalog

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX builds a catalog from a library workbook. Each table is a sheet
// with a header row; the layout follows the scraped glove library exports
// (one sheet per table, snake_case column names).
func LoadXLSX(path string) (*Catalog, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog workbook: %w", err)
	}
	defer f.Close()

	var t Tables

	if err := forEachRow(f, "Brands", func(row map[string]string) error {
		t.Brands = append(t.Brands, Brand{
			Key:  row["brand_key"],
			Name: row["name"],
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := forEachRow(f, "Families", func(row map[string]string) error {
		t.Families = append(t.Families, Family{
			Key:      row["family_key"],
			BrandKey: row["brand_key"],
			Name:     row["name"],
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := forEachRow(f, "Patterns", func(row map[string]string) error {
		t.Patterns = append(t.Patterns, Pattern{
			Key:      row["pattern_key"],
			Name:     row["name"],
			Position: row["position"],
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := forEachRow(f, "Variants", func(row map[string]string) error {
		year, _ := strconv.Atoi(row["year"])
		msrp, _ := strconv.ParseFloat(row["msrp"], 64)
		t.Variants = append(t.Variants, Variant{
			ID:         row["variant_id"],
			BrandKey:   row["brand_key"],
			FamilyKey:  row["family_key"],
			PatternKey: row["pattern_key"],
			ModelCode:  row["model_code"],
			Web:        row["web"],
			Leather:    row["leather"],
			MadeIn:     row["made_in"],
			Year:       year,
			MSRP:       msrp,
		})
		return nil
	}); err != nil {
		return nil, err
	}

	if err := forEachRow(f, "Sales", func(row map[string]string) error {
		price, err := strconv.ParseFloat(row["price_usd"], 64)
		if err != nil {
			return fmt.Errorf("sale %s: bad price_usd %q", row["sale_id"], row["price_usd"])
		}
		date, err := parseSaleDate(row["sale_date"])
		if err != nil {
			return fmt.Errorf("sale %s: %w", row["sale_id"], err)
		}
		t.Sales = append(t.Sales, Sale{
			SaleID:     row["sale_id"],
			VariantID:  row["variant_id"],
			BrandKey:   row["brand_key"],
			SaleDate:   date,
			PriceUSD:   price,
			Source:     row["source"],
			IsReferral: strings.EqualFold(row["is_referral"], "true"),
		})
		return nil
	}); err != nil {
		return nil, err
	}

	// Artifacts sheet is optional.
	_ = forEachRow(f, "Artifacts", func(row map[string]string) error {
		t.Artifacts = append(t.Artifacts, Artifact{
			ID:        row["artifact_id"],
			VariantID: row["variant_id"],
			Notes:     row["notes"],
		})
		return nil
	})

	return New(t), nil
}

func forEachRow(f *excelize.File, sheet string, fn func(row map[string]string) error) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("sheet %s: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil
	}
	headers := rows[0]
	for _, raw := range rows[1:] {
		row := make(map[string]string, len(headers))
		for i, h := range headers {
			if i < len(raw) {
				row[strings.TrimSpace(h)] = strings.TrimSpace(raw[i])
			}
		}
		if err := fn(row); err != nil {
			return fmt.Errorf("sheet %s: %w", sheet, err)
		}
	}
	return nil
}

func parseSaleDate(value string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02", "01-02-06", "1/2/2006"} {
		if d, err := time.Parse(layout, value); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("bad sale_date %q", value)
}
