package relay

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"HealthBuddy/internal/utility"

	"github.com/labstack/echo/v4"
)

const statusPage = `<h1>GenAI Health Buddy Backend (Meta API)</h1><p>Server is running correctly.</p>`

/* =================================================================================
							DTOs (Data Transfer Objects)
=================================================================================*/

// SendRequest is the body of POST /api/send-whatsapp.
type SendRequest struct {
	To   string `json:"to"`
	Name string `json:"name"`
	Body string `json:"body"`
}

// SendResponse is returned for both outcomes; Data is set on success, Error and Details on failure.
type SendResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Details json.RawMessage `json:"details,omitempty"`
}

/* =================================================================================
							ROUTE HANDLERS
=================================================================================*/

// Handler serves the relay endpoints.
type Handler struct {
	sender TemplateSender
}

func NewHandler(sender TemplateSender) *Handler {
	return &Handler{sender: sender}
}

// RegisterRoutes mounts the relay endpoints on e.
func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.StatusPageHandler)
	e.POST("/api/send-whatsapp", h.SendWhatsAppHandler)
}

// StatusPageHandler serves a static page confirming the relay is up.
func (h *Handler) StatusPageHandler(c echo.Context) error {
	return c.HTML(http.StatusOK, statusPage)
}

// SendWhatsAppHandler validates the payload and forwards it as a template message.
func (h *Handler) SendWhatsAppHandler(c echo.Context) error {
	logger := utility.RequestLogger(c)

	var req SendRequest
	if err := c.Bind(&req); err != nil {
		logger.Error().Err(err).Msg("Failed to bind request body")
		return c.JSON(http.StatusBadRequest, SendResponse{Success: false, Error: "Invalid request format."})
	}

	logger.Info().Str("to", req.To).Msg("New request to send WhatsApp template")

	if strings.TrimSpace(req.To) == "" || strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Body) == "" {
		logger.Warn().Msg("Validation error: missing to, name or body")
		return c.JSON(http.StatusBadRequest, SendResponse{Success: false, Error: `Missing "to", "name", or "body" in request.`})
	}
	if NormalizeRecipient(req.To) == "" {
		logger.Warn().Str("to", req.To).Msg("Validation error: recipient has no digits")
		return c.JSON(http.StatusBadRequest, SendResponse{Success: false, Error: `"to" must contain a phone number.`})
	}

	data, err := h.sender.SendTemplate(c.Request().Context(), req.To, req.Name, req.Body)
	if err != nil {
		details := messageDetails(err.Error())
		var relayErr *RelayError
		if errors.As(err, &relayErr) && len(relayErr.Details) > 0 {
			details = relayErr.Details
		}
		logger.Error().Err(err).RawJSON("details", details).Msg("Meta API error")
		return c.JSON(http.StatusInternalServerError, SendResponse{
			Success: false,
			Error:   "Failed to send WhatsApp message via Meta API.",
			Details: details,
		})
	}

	logger.Info().RawJSON("response", data).Msg("Message sent successfully")
	return c.JSON(http.StatusOK, SendResponse{Success: true, Data: data})
}
