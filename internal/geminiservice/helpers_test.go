package geminiservice

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test Helpers
// ============================================================================

// stubGenerator records payloads and answers with respond.
type stubGenerator struct {
	mu       sync.Mutex
	payloads []*GeminiPayload
	respond  func(p *GeminiPayload) (string, error)
}

func (s *stubGenerator) Generate(_ context.Context, p *GeminiPayload) (string, error) {
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

func (s *stubGenerator) last() *GeminiPayload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.payloads[len(s.payloads)-1]
}

func replyWith(text string) func(*GeminiPayload) (string, error) {
	return func(*GeminiPayload) (string, error) { return text, nil }
}

func newTestGateway(t *testing.T, respond func(*GeminiPayload) (string, error)) (*Gateway, *stubGenerator) {
	t.Helper()
	stub := &stubGenerator{respond: respond}
	g, err := NewGateway(stub, 16)
	require.NoError(t, err)
	return g, stub
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}
