/*
Package relay forwards prescription summaries to the Meta WhatsApp Cloud API as
template messages, and formats those summaries on the API side.
*/
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

	"HealthBuddy/internal/config"
	"HealthBuddy/internal/utility"

	"github.com/rs/zerolog/log"
)

const (
	templateLanguage = "en_US"
	sendTimeout      = 30 * time.Second
	maxUpstreamBody  = 64 << 10
)

/* =================================================================================
							META GRAPH API PAYLOAD
=================================================================================*/

type templateMessage struct {
	MessagingProduct string   `json:"messaging_product"`
	To               string   `json:"to"`
	Type             string   `json:"type"`
	Template         template `json:"template"`
}

type template struct {
	Name       string              `json:"name"`
	Language   templateLanguageTag `json:"language"`
	Components []templateComponent `json:"components"`
}

type templateLanguageTag struct {
	Code string `json:"code"`
}

type templateComponent struct {
	Type       string              `json:"type"`
	Parameters []templateParameter `json:"parameters"`
}

type templateParameter struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// TemplateSender delivers a two-parameter template (patient name, summary body).
type TemplateSender interface {
	SendTemplate(ctx context.Context, to, name, body string) (json.RawMessage, error)
}

// WhatsAppClient is the Graph API implementation of TemplateSender.
type WhatsAppClient struct {
	accessToken  string
	templateName string
	messagesURL  string
	httpClient   *http.Client
}

func NewWhatsAppClient(cfg config.Relay) *WhatsAppClient {
	return &WhatsAppClient{
		accessToken:  cfg.AccessToken,
		templateName: cfg.TemplateName,
		messagesURL: fmt.Sprintf("%s/%s/%s/messages",
			strings.TrimRight(cfg.GraphBaseURL, "/"), cfg.APIVersion, cfg.PhoneNumberID),
		httpClient: &http.Client{Timeout: sendTimeout},
	}
}

// NormalizeRecipient reduces a phone number to the digits the Graph API expects.
func NormalizeRecipient(to string) string {
	return utility.DigitsOnly(to)
}

func (w *WhatsAppClient) buildMessage(to, name, body string) templateMessage {
	return templateMessage{
		MessagingProduct: "whatsapp",
		To:               NormalizeRecipient(to),
		Type:             "template",
		Template: template{
			Name:     w.templateName,
			Language: templateLanguageTag{Code: templateLanguage},
			Components: []templateComponent{{
				Type: "body",
				Parameters: []templateParameter{
					{Type: "text", Text: name}, // {{patient_name}}
					{Type: "text", Text: body}, // {{summary_body}}
				},
			}},
		},
	}
}

// SendTemplate posts the template message and returns the Graph API response document.
func (w *WhatsAppClient) SendTemplate(ctx context.Context, to, name, body string) (json.RawMessage, error) {
	msg := w.buildMessage(to, name, body)

	payload, err := json.Marshal(msg)
	if err != nil {
		return nil, &RelayError{Message: "failed to encode template message", Details: messageDetails(err.Error()), Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.messagesURL, bytes.NewReader(payload))
	if err != nil {
		return nil, &RelayError{Message: "failed to create request", Details: messageDetails(err.Error()), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+w.accessToken)
	req.Header.Set("Content-Type", "application/json")

	log.Info().Str("to", msg.To).Str("template", w.templateName).Msg("Contacting Meta Graph API")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, &RelayError{Message: "request to Meta Graph API failed", Details: messageDetails(err.Error()), Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, &RelayError{Status: resp.StatusCode, Message: "failed to read Meta Graph API response", Details: messageDetails(err.Error()), Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &RelayError{
			Status:  resp.StatusCode,
			Message: "Meta Graph API rejected the message",
			Details: detailsFromBody(respBody),
		}
	}

	if !json.Valid(respBody) {
		return json.RawMessage("null"), nil
	}
	return json.RawMessage(respBody), nil
}
