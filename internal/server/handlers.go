package server

import (
	"bufio"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strings"

	"HealthBuddy/internal/geminiservice"
	"HealthBuddy/internal/models"
	"HealthBuddy/internal/relay"
	"HealthBuddy/internal/utility"

	"github.com/labstack/echo/v4"
)

/* =================================================================================
							DTOs (Data Transfer Objects)
=================================================================================*/

type MedicineRequest struct {
	Name string `json:"name"`
}

type SymptomsRequest struct {
	Symptoms string `json:"symptoms"`
}

// TranslateRequest carries any analysis record; Kind selects its shape.
type TranslateRequest struct {
	Kind string          `json:"kind"` // 'medicine', 'prescription', 'symptom'
	Lang string          `json:"lang"`
	Data json.RawMessage `json:"data"`
}

type ComparisonTranslateRequest struct {
	Lang      string                `json:"lang"`
	Medicines []models.MedicineInfo `json:"medicines"`
}

type ChatSessionResponse struct {
	SessionID  string               `json:"session_id"`
	State      string               `json:"state"`
	Transcript []models.ChatMessage `json:"transcript"`
}

type ChatMessageRequest struct {
	Message string `json:"message"`
}

type ChatMessageResponse struct {
	Reply            models.ChatMessage `json:"reply"`
	TranscriptLength int                `json:"transcript_length"`
}

type SummaryRequest struct {
	Name         string                  `json:"name"`
	Phone        string                  `json:"phone"`
	Prescription models.PrescriptionInfo `json:"prescription"`
}

type errorResponse struct {
	Error string `json:"error"`
}

/* =================================================================================
							ANALYSIS HANDLERS
=================================================================================*/

// MedicineHandler looks up a medicine by name.
func (s *Server) MedicineHandler(c echo.Context) error {
	var req MedicineRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Invalid request format"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"Medicine name is required"})
	}

	info, err := s.gateway.LookupMedicine(c.Request().Context(), req.Name)
	if err != nil {
		return s.gatewayError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// PrescriptionHandler analyzes an uploaded prescription image (multipart field "image").
func (s *Server) PrescriptionHandler(c echo.Context) error {
	logger := utility.RequestLogger(c)

	fileHeader, err := c.FormFile("image")
	if err != nil {
		logger.Warn().Err(err).Msg("Prescription upload without image")
		return c.JSON(http.StatusBadRequest, errorResponse{"Please select a prescription image."})
	}

	file, err := fileHeader.Open()
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open uploaded image")
		return c.JSON(http.StatusBadRequest, errorResponse{"Could not read the uploaded image."})
	}
	defer file.Close()

	reader, mimeType := sniffImageType(file, fileHeader)

	info, err := s.gateway.AnalyzePrescription(c.Request().Context(), reader, mimeType)
	if err != nil {
		return s.gatewayError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

// SymptomsHandler runs the symptom checker.
func (s *Server) SymptomsHandler(c echo.Context) error {
	var req SymptomsRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Invalid request format"})
	}
	if strings.TrimSpace(req.Symptoms) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"Please describe your symptoms."})
	}

	info, err := s.gateway.AnalyzeSymptoms(c.Request().Context(), req.Symptoms)
	if err != nil {
		return s.gatewayError(c, err)
	}
	return c.JSON(http.StatusOK, info)
}

/* =================================================================================
							TRANSLATION HANDLERS
=================================================================================*/

// TranslateHandler translates a medicine, prescription or symptom record.
func (s *Server) TranslateHandler(c echo.Context) error {
	var req TranslateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Invalid request format"})
	}
	if len(req.Data) == 0 {
		return c.JSON(http.StatusBadRequest, errorResponse{"Nothing to translate"})
	}

	ctx := c.Request().Context()

	switch req.Kind {
	case "medicine":
		var rec models.MedicineInfo
		if err := json.Unmarshal(req.Data, &rec); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{"Invalid medicine record"})
		}
		out, err := geminiservice.Translate(ctx, s.gateway, rec, req.Lang)
		if err != nil {
			return s.gatewayError(c, err)
		}
		return c.JSON(http.StatusOK, out)

	case "prescription":
		var rec models.PrescriptionInfo
		if err := json.Unmarshal(req.Data, &rec); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{"Invalid prescription record"})
		}
		out, err := geminiservice.Translate(ctx, s.gateway, rec, req.Lang)
		if err != nil {
			return s.gatewayError(c, err)
		}
		return c.JSON(http.StatusOK, out)

	case "symptom":
		var rec models.SymptomInfo
		if err := json.Unmarshal(req.Data, &rec); err != nil {
			return c.JSON(http.StatusBadRequest, errorResponse{"Invalid symptom record"})
		}
		out, err := geminiservice.Translate(ctx, s.gateway, rec, req.Lang)
		if err != nil {
			return s.gatewayError(c, err)
		}
		return c.JSON(http.StatusOK, out)
	}

	return c.JSON(http.StatusBadRequest, errorResponse{"Kind must be 'medicine', 'prescription' or 'symptom'"})
}

// TranslateComparisonHandler translates the two medicines of a comparison together.
func (s *Server) TranslateComparisonHandler(c echo.Context) error {
	var req ComparisonTranslateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Invalid request format"})
	}
	if len(req.Medicines) != 2 {
		return c.JSON(http.StatusBadRequest, errorResponse{"Exactly two medicines are required"})
	}

	a, b, err := geminiservice.TranslatePair(c.Request().Context(), s.gateway, req.Medicines[0], req.Medicines[1], req.Lang)
	if err != nil {
		return s.gatewayError(c, err)
	}
	return c.JSON(http.StatusOK, []models.MedicineInfo{a, b})
}

/* =================================================================================
							CHAT HANDLERS
=================================================================================*/

// CreateChatSessionHandler opens a new conversation and returns its greeting.
func (s *Server) CreateChatSessionHandler(c echo.Context) error {
	session := s.gateway.NewChatSession()
	id := s.sessions.Add(session)

	utility.RequestLogger(c).Info().Str("session_id", id).Msg("Chat session created")

	return c.JSON(http.StatusCreated, ChatSessionResponse{
		SessionID:  id,
		State:      string(session.State()),
		Transcript: session.Transcript(),
	})
}

// GetChatSessionHandler returns the transcript of an existing conversation.
func (s *Server) GetChatSessionHandler(c echo.Context) error {
	id := c.Param("session_id")
	session, ok := s.sessions.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{"Chat session not found"})
	}
	return c.JSON(http.StatusOK, ChatSessionResponse{
		SessionID:  id,
		State:      string(session.State()),
		Transcript: session.Transcript(),
	})
}

// SendChatMessageHandler sends one user message. Model failures still answer 200
// with an apology as the reply; only refused messages produce an error status.
func (s *Server) SendChatMessageHandler(c echo.Context) error {
	id := c.Param("session_id")
	session, ok := s.sessions.Get(id)
	if !ok {
		return c.JSON(http.StatusNotFound, errorResponse{"Chat session not found"})
	}

	var req ChatMessageRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Invalid request format"})
	}

	reply, err := session.Send(c.Request().Context(), req.Message)
	if err != nil {
		return c.JSON(chatErrorStatus(err), errorResponse{err.Error()})
	}

	return c.JSON(http.StatusOK, ChatMessageResponse{
		Reply:            reply,
		TranscriptLength: len(session.Transcript()),
	})
}

/* =================================================================================
							SUMMARY HANDLER
=================================================================================*/

// SendSummaryHandler forwards a prescription summary to the patient over WhatsApp.
func (s *Server) SendSummaryHandler(c echo.Context) error {
	logger := utility.RequestLogger(c)

	var req SummaryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{"Invalid request format"})
	}
	if strings.TrimSpace(req.Name) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"Please enter your name."})
	}
	if strings.TrimSpace(req.Phone) == "" {
		return c.JSON(http.StatusBadRequest, errorResponse{"Please enter your WhatsApp number."})
	}

	if err := s.summaries.SendSummary(c.Request().Context(), req.Name, req.Phone, req.Prescription); err != nil {
		logger.Error().Err(err).Msg("Failed to send prescription summary")
		return c.JSON(http.StatusBadGateway, errorResponse{relay.SummaryFailedMessage})
	}

	return c.JSON(http.StatusOK, map[string]bool{"success": true})
}

/*=================================================================================
								HELPER FUNCTIONS
=================================================================================*/

// gatewayError maps a gateway failure to a status code and the user-facing message.
func (s *Server) gatewayError(c echo.Context, err error) error {
	status := http.StatusBadGateway
	switch {
	case geminiservice.IsInvalidInput(err):
		status = http.StatusBadRequest
	case errors.Is(err, geminiservice.ErrResponseFormat):
		status = http.StatusUnprocessableEntity
	}

	utility.RequestLogger(c).Error().Err(err).Int("status", status).Msg("Gateway operation failed")
	return c.JSON(status, errorResponse{geminiservice.UserMessage(err)})
}

func chatErrorStatus(err error) int {
	switch {
	case errors.Is(err, geminiservice.ErrSessionBusy):
		return http.StatusConflict
	case errors.Is(err, geminiservice.ErrEmptyMessage):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// sniffImageType trusts the declared part type unless it is missing or generic,
// in which case the first bytes of the upload decide.
func sniffImageType(file multipart.File, header *multipart.FileHeader) (*bufio.Reader, string) {
	reader := bufio.NewReaderSize(file, 512)
	declared := header.Header.Get("Content-Type")
	if declared != "" && declared != "application/octet-stream" {
		return reader, declared
	}
	head, _ := reader.Peek(512)
	return reader, http.DetectContentType(head)
}
