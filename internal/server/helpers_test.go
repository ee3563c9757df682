package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"HealthBuddy/internal/config"
	"HealthBuddy/internal/geminiservice"
	"HealthBuddy/internal/models"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

type stubGenerator struct {
	mu       sync.Mutex
	payloads []*geminiservice.GeminiPayload
	respond  func(p *geminiservice.GeminiPayload) (string, error)
}

func (s *stubGenerator) Generate(_ context.Context, p *geminiservice.GeminiPayload) (string, error) {
	s.mu.Lock()
	s.payloads = append(s.payloads, p)
	s.mu.Unlock()
	return s.respond(p)
}

func (s *stubGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.payloads)
}

func (s *stubGenerator) last() *geminiservice.GeminiPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[len(s.payloads)-1]
}

func replyWith(text string) func(*geminiservice.GeminiPayload) (string, error) {
	return func(*geminiservice.GeminiPayload) (string, error) { return text, nil }
}

type stubSummaries struct {
	mu    sync.Mutex
	name  string
	phone string
	info  models.PrescriptionInfo
	err   error
}

func (s *stubSummaries) SendSummary(_ context.Context, name, phone string, info models.PrescriptionInfo) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name, s.phone, s.info = name, phone, info
	return s.err
}

// newTestServer builds a Server over gen and returns its routed handler.
func newTestServer(t *testing.T, gen geminiservice.Generator, summaries SummarySender) (*Server, http.Handler) {
	t.Helper()
	gateway, err := geminiservice.NewGateway(gen, 16)
	require.NoError(t, err)

	s := NewServer(config.API{Port: 0, ChatMaxSessions: 8, ChatSessionTTL: time.Minute}, gateway, summaries)
	return s, s.RegisterRoutes()
}

func doJSON(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func doloInfo() models.MedicineInfo {
	return models.MedicineInfo{
		Name:        "Dolo 650",
		Uses:        []string{"Fever", "Pain relief"},
		Dosage:      "1 tablet every 6 hours",
		SideEffects: []string{"Nausea"},
		Precautions: []string{"Avoid alcohol"},
	}
}
