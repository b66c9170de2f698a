package vision

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// IdentificationResult is the strictly validated output of the vision
// capability. Every field is required upstream; a payload missing any of them
// is rejected before it reaches the pipeline.
type IdentificationResult struct {
	Brand               string  `json:"brand"`
	Family              string  `json:"family"`
	Model               string  `json:"model"`
	Pattern             string  `json:"pattern"`
	Size                string  `json:"size"`
	ThrowSide           string  `json:"throwSide"`
	Web                 string  `json:"web"`
	Leather             string  `json:"leather"`
	MadeIn              string  `json:"madeIn"`
	VariantID           string  `json:"variantId"`
	IDConfidence        float64 `json:"idConfidence"`
	VariantConfirmed    bool    `json:"variantConfirmed"`
	ConditionConfidence float64 `json:"conditionConfidence"`
	StampText           string  `json:"stamp_text"`
	CountryStamp        string  `json:"country_stamp"`
}

var identificationSchema = map[string]any{
	"type": "object",
	"required": []any{
		"brand", "family", "model", "pattern", "size", "throwSide",
		"web", "leather", "madeIn", "variantId", "idConfidence",
		"variantConfirmed", "conditionConfidence", "stamp_text", "country_stamp",
	},
	"properties": map[string]any{
		"brand":               map[string]any{"type": "string"},
		"family":              map[string]any{"type": "string"},
		"model":               map[string]any{"type": "string"},
		"pattern":             map[string]any{"type": "string"},
		"size":                map[string]any{"type": "string"},
		"throwSide":           map[string]any{"type": "string"},
		"web":                 map[string]any{"type": "string"},
		"leather":             map[string]any{"type": "string"},
		"madeIn":              map[string]any{"type": "string"},
		"variantId":           map[string]any{"type": "string"},
		"idConfidence":        map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"variantConfirmed":    map[string]any{"type": "boolean"},
		"conditionConfidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"stamp_text":          map[string]any{"type": "string"},
		"country_stamp":       map[string]any{"type": "string"},
	},
}

var (
	compiledSchema     *jsonschema.Schema
	compileSchemaOnce  sync.Once
	compileSchemaError error
)

func compileSchema() (*jsonschema.Schema, error) {
	compileSchemaOnce.Do(func() {
		b, err := json.Marshal(identificationSchema)
		if err != nil {
			compileSchemaError = fmt.Errorf("marshal schema: %w", err)
			return
		}
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("identification.json", bytes.NewReader(b)); err != nil {
			compileSchemaError = fmt.Errorf("add schema: %w", err)
			return
		}
		compiledSchema, compileSchemaError = compiler.Compile("identification.json")
	})
	return compiledSchema, compileSchemaError
}

// ParseIdentification validates raw JSON against the identification schema
// and decodes it into a typed result. Validation failures are fatal for the
// request; no fallback identification is synthesized.
func ParseIdentification(data []byte) (*IdentificationResult, error) {
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("identification payload is not valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return nil, fmt.Errorf("identification payload does not match schema: %w", err)
	}
	var result IdentificationResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, fmt.Errorf("failed to decode identification payload: %w", err)
	}
	return &result, nil
}
