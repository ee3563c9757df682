package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"HealthBuddy/internal/models"
	"HealthBuddy/internal/utility"

	"github.com/rs/zerolog/log"
)

// SummaryFailedMessage is what the user sees when a summary could not be delivered.
const SummaryFailedMessage = "Could not send the summary via WhatsApp. Please check the phone number or try again later."

// Client calls the relay backend from the API server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: sendTimeout + 5*time.Second},
	}
}

// SendSummary formats info and asks the relay to deliver it to phone.
func (c *Client) SendSummary(ctx context.Context, name, phone string, info models.PrescriptionInfo) error {
	reqBody := SendRequest{
		To:   FormatPhone(phone),
		Name: name,
		Body: FormatSummary(info),
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return &RelayError{Message: SummaryFailedMessage, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/send-whatsapp", bytes.NewReader(payload))
	if err != nil {
		return &RelayError{Message: SummaryFailedMessage, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Relay backend unreachable")
		return &RelayError{Message: SummaryFailedMessage, Err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		log.Debug().Err(err).Int("status", resp.StatusCode).Msg("Failed to read relay response body")
	}
	if resp.StatusCode == http.StatusOK {
		return nil
	}

	var result SendResponse
	if err := json.Unmarshal(body, &result); err != nil {
		log.Debug().Err(err).Int("status", resp.StatusCode).Str("body", utility.Truncate(string(body), 200)).
			Msg("Relay response is not a JSON send result")
	}
	reason := result.Error
	if reason == "" {
		reason = resp.Status
	}

	log.Error().Int("status", resp.StatusCode).Str("reason", reason).Msg("Relay backend refused summary")
	return &RelayError{
		Status:  resp.StatusCode,
		Message: SummaryFailedMessage,
		Details: detailsOrBody(result.Details, body),
		Err:     fmt.Errorf("relay returned %d: %s", resp.StatusCode, reason),
	}
}

func detailsOrBody(details json.RawMessage, body []byte) json.RawMessage {
	if len(details) > 0 {
		return details
	}
	return detailsFromBody(body)
}
