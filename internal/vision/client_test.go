package vision_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gloveiq-backend/internal/vision"
)

const validIdentification = `{
	"brand": "Rawlings",
	"family": "Heart of the Hide",
	"model": "PRO204-2CBG",
	"pattern": "204",
	"size": "11.5",
	"throwSide": "RHT",
	"web": "I-web",
	"leather": "Heart of the Hide",
	"madeIn": "Philippines",
	"variantId": "var_hoh_204_1",
	"idConfidence": 0.91,
	"variantConfirmed": true,
	"conditionConfidence": 0.8,
	"stamp_text": "HEART OF THE HIDE",
	"country_stamp": "PHILIPPINES"
}`

func TestIdentify_ParsesFencedResponse(t *testing.T) {
	var gotPath, gotKey string
	var gotPayload map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("x-api-key")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		w.Write([]byte("```json\n" + validIdentification + "\n```"))
	}))
	defer server.Close()

	client := vision.NewClient(server.URL, "test-key")
	result, err := client.Identify(context.Background(), []vision.ImageInput{
		{Mime: "image/jpeg", Bytes: []byte("palm-bytes")},
		{Mime: "image/png", Bytes: []byte("back-bytes")},
	}, "rawlings heart of the hide")
	require.NoError(t, err)

	assert.Equal(t, "/identify", gotPath)
	assert.Equal(t, "test-key", gotKey)
	assert.Len(t, gotPayload["images"], 2)
	assert.Equal(t, "rawlings heart of the hide", gotPayload["hint"])

	assert.Equal(t, "Rawlings", result.Brand)
	assert.Equal(t, "var_hoh_204_1", result.VariantID)
	assert.InDelta(t, 0.91, result.IDConfidence, 1e-9)
	assert.True(t, result.VariantConfirmed)
}

func TestIdentify_RejectsSchemaViolations(t *testing.T) {
	// idConfidence above 1 and a missing required field both fail validation.
	bad := map[string]string{
		"out of range confidence": `{"brand":"Rawlings","family":"","model":"","pattern":"","size":"","throwSide":"","web":"","leather":"","madeIn":"","variantId":"","idConfidence":1.5,"variantConfirmed":false,"conditionConfidence":0.5,"stamp_text":"","country_stamp":""}`,
		"missing brand":           `{"family":"","model":"","pattern":"","size":"","throwSide":"","web":"","leather":"","madeIn":"","variantId":"","idConfidence":0.9,"variantConfirmed":false,"conditionConfidence":0.5,"stamp_text":"","country_stamp":""}`,
		"not json":                `the glove appears to be a Rawlings`,
	}
	for name, body := range bad {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))
		client := vision.NewClient(server.URL, "test-key")
		_, err := client.Identify(context.Background(), nil, "")
		assert.Error(t, err, name)
		server.Close()
	}
}

func TestIdentify_NonOKStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte("rate limited"))
	}))
	defer server.Close()

	client := vision.NewClient(server.URL, "test-key")
	_, err := client.Identify(context.Background(), nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 429")
	assert.Contains(t, err.Error(), "rate limited")
}

func TestIdentify_MissingAPIKey(t *testing.T) {
	client := vision.NewClient("http://localhost:9", "")
	_, err := client.Identify(context.Background(), nil, "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestStripCodeFence(t *testing.T) {
	cases := map[string]string{
		"```json\n{\"a\":1}\n```": `{"a":1}`,
		"```\n{\"a\":1}\n```":     `{"a":1}`,
		`{"a":1}`:                 `{"a":1}`,
		"  {\"a\":1}  ":           "  {\"a\":1}  ",
	}
	for in, want := range cases {
		assert.Equal(t, want, string(vision.StripCodeFence([]byte(in))))
	}
}

func TestParseIdentification_Valid(t *testing.T) {
	result, err := vision.ParseIdentification([]byte(validIdentification))
	require.NoError(t, err)
	assert.Equal(t, "204", result.Pattern)
	assert.Equal(t, "PHILIPPINES", result.CountryStamp)
}
