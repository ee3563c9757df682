package geminiservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// --- Gemini API Configuration ---
const (
	DefaultBaseURL     = "https://generativelanguage.googleapis.com"
	DefaultModel       = "gemini-2.5-flash"
	requestTimeout     = 60 * time.Second
	structuredMimeType = "application/json"

	// maxErrorBody caps how much of a failed response is kept for logging.
	maxErrorBody = 4 << 10
)

// --- Structs for Gemini API Request/Response ---

type GeminiPayload struct {
	Contents          []GeminiContent   `json:"contents"`
	SystemInstruction *GeminiContent    `json:"systemInstruction,omitempty"`
	GenerationConfig  *GenerationConfig `json:"generationConfig,omitempty"`
}

// GeminiContent is one turn. Role is "user" or "model" and is left empty for
// single-shot requests and system instructions.
type GeminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []GeminiPart `json:"parts"`
}

type GeminiPart struct {
	Text       string      `json:"text,omitempty"`
	InlineData *InlineData `json:"inlineData,omitempty"`
}

// InlineData carries base64-encoded binary content such as an uploaded image.
type InlineData struct {
	MimeType string `json:"mimeType"`
	Data     string `json:"data"`
}

type GenerationConfig struct {
	ResponseMimeType string        `json:"responseMimeType,omitempty"`
	ResponseSchema   *GeminiSchema `json:"responseSchema,omitempty"`
}

type GeminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
	PromptFeedback *struct {
		BlockReason string `json:"blockReason"`
	} `json:"promptFeedback,omitempty"`
}

// Generator sends one generateContent request and returns the concatenated
// text of the first candidate.
type Generator interface {
	Generate(ctx context.Context, payload *GeminiPayload) (string, error)
}

// Client is the REST implementation of Generator.
type Client struct {
	apiKey     string
	model      string
	baseURL    string
	httpClient *http.Client
	log        zerolog.Logger
}

// ClientConfig holds what NewClient needs to reach the API.
type ClientConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

// NewClient builds a Gemini REST client. Empty Model, BaseURL and Timeout fall
// back to the package defaults.
func NewClient(cfg ClientConfig, log zerolog.Logger) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = requestTimeout
	}

	return &Client{
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        log.With().Str("component", "gemini").Str("model", cfg.Model).Logger(),
	}
}

// Model reports the model identifier requests are sent to.
func (c *Client) Model() string {
	return c.model
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))
}

// Generate handles the actual HTTP request to the Gemini API. A single attempt
// is made; the caller decides whether to re-issue the request.
func (c *Client) Generate(ctx context.Context, payload *GeminiPayload) (string, error) {
	if c.apiKey == "" {
		c.log.Error().Msg("GEMINI_API_KEY is not set")
		return "", fmt.Errorf("server is not configured for AI requests")
	}

	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(payloadBytes))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	// the key must never appear in the URL
	req.Header.Set("x-goog-api-key", c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Warn().Err(err).Msg("Gemini request failed")
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		c.log.Warn().Int("status", resp.StatusCode).Str("body", string(body)).Msg("Gemini returned non-200 status")
		return "", fmt.Errorf("API returned non-200 status: %s", resp.Status)
	}

	var geminiResp GeminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&geminiResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	if geminiResp.PromptFeedback != nil && geminiResp.PromptFeedback.BlockReason != "" {
		return "", fmt.Errorf("prompt was blocked: %s", geminiResp.PromptFeedback.BlockReason)
	}

	c.log.Debug().Dur("took", time.Since(start)).Int("candidates", len(geminiResp.Candidates)).Msg("Gemini call finished")

	if len(geminiResp.Candidates) == 0 {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range geminiResp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}

/* =================================================================================
							PAYLOAD HELPERS
=================================================================================*/

// structuredPayload wraps parts into a single-turn request constrained to JSON.
// A nil schema still forces a JSON response but leaves its shape open.
func structuredPayload(schema *GeminiSchema, parts ...GeminiPart) *GeminiPayload {
	return &GeminiPayload{
		Contents: []GeminiContent{{Parts: parts}},
		GenerationConfig: &GenerationConfig{
			ResponseMimeType: structuredMimeType,
			ResponseSchema:   schema,
		},
	}
}

func textPart(text string) GeminiPart {
	return GeminiPart{Text: text}
}
