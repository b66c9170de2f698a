package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// systemInstruction is sent with every identification request.
const systemInstruction = "be conservative, avoid hallucination"

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type ImageInput struct {
	Mime  string
	Bytes []byte
}

type identifyRequest struct {
	Images []imagePayload `json:"images"`
	Hint   string         `json:"hint"`
	System string         `json:"system"`
}

type imagePayload struct {
	Mime string `json:"mime"`
	Data string `json:"data"`
}

// Identify sends the photo set and hint to the vision capability and returns
// its validated identification guess. Any transport, status or schema failure
// is an error; the caller treats it as fatal for the whole request.
func (c *Client) Identify(ctx context.Context, images []ImageInput, hint string) (*IdentificationResult, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("vision API key is not configured")
	}

	payload := identifyRequest{
		Images: make([]imagePayload, len(images)),
		Hint:   hint,
		System: systemInstruction,
	}
	for i, img := range images {
		payload.Images[i] = imagePayload{
			Mime: img.Mime,
			Data: base64.StdEncoding.EncodeToString(img.Bytes),
		}
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/identify"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("identification failed: status %d, body: %s", resp.StatusCode, string(body))
	}

	return ParseIdentification(StripCodeFence(body))
}

// StripCodeFence unwraps a payload the model wrapped in a fenced code block,
// with or without a language tag. Unfenced payloads pass through untouched.
func StripCodeFence(body []byte) []byte {
	text := strings.TrimSpace(string(body))
	if !strings.HasPrefix(text, "```") {
		return body
	}
	text = strings.TrimPrefix(text, "```")
	if idx := strings.Index(text, "\n"); idx >= 0 {
		// Drop the language tag line ("json", "JSON", or empty).
		text = text[idx+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return []byte(strings.TrimSpace(text))
}
