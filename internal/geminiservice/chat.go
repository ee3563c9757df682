package geminiservice

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"HealthBuddy/internal/models"

	"github.com/rs/zerolog/log"
)

// SessionState is the lifecycle position of a ChatSession.
type SessionState string

const (
	StateUninitialized SessionState = "uninitialized"
	StateActive        SessionState = "active"
)

const chatFailurePrefix = "Sorry, something went wrong. "

/*
ChatSession is one multi-turn conversation with the health assistant.

The transcript is what the user sees: the greeting followed by user/model pairs,
including failed turns. The history is what the model sees on the next send and
only holds turns that completed. Sends are serialized; a Send issued while another
is in flight fails with ErrSessionBusy and changes nothing.
*/
type ChatSession struct {
	client Generator

	mu         sync.Mutex
	started    bool
	busy       bool
	history    []GeminiContent
	transcript []models.ChatMessage
	lastActive time.Time
}

// NewChatSession starts a conversation whose transcript opens with the greeting.
func NewChatSession(client Generator) *ChatSession {
	return &ChatSession{
		client:     client,
		started:    true,
		transcript: []models.ChatMessage{{Role: models.RoleModel, Text: ChatGreeting}},
		lastActive: time.Now(),
	}
}

func (s *ChatSession) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return StateUninitialized
	}
	return StateActive
}

// Transcript returns a copy of the conversation as shown to the user.
func (s *ChatSession) Transcript() []models.ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.ChatMessage, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// LastActive reports when the session last accepted a message.
func (s *ChatSession) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

/*
Send delivers one user message and returns the model's reply. Model or transport
failures do not surface as errors: the reply is a model-authored apology so the
conversation can continue. The returned error is only set when the message was
refused (blank message, busy or unstarted session).
*/
func (s *ChatSession) Send(ctx context.Context, message string) (models.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return models.ChatMessage{}, ErrEmptyMessage
	}

	// 1. Claim the session and record the user turn
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrSessionNotStarted
	}
	if s.busy {
		s.mu.Unlock()
		return models.ChatMessage{}, ErrSessionBusy
	}
	s.busy = true
	s.lastActive = time.Now()
	s.transcript = append(s.transcript, models.ChatMessage{Role: models.RoleUser, Text: message})

	userTurn := GeminiContent{Role: string(models.RoleUser), Parts: []GeminiPart{textPart(message)}}
	contents := make([]GeminiContent, 0, len(s.history)+1)
	contents = append(contents, s.history...)
	contents = append(contents, userTurn)
	s.mu.Unlock()

	// 2. Call the model with the full history, outside the lock
	payload := &GeminiPayload{
		SystemInstruction: &GeminiContent{Parts: []GeminiPart{textPart(ChatSystemInstruction)}},
		Contents:          contents,
	}
	text, err := s.client.Generate(ctx, payload)
	text = strings.TrimSpace(text)
	if err == nil && text == "" {
		err = errors.New("empty reply")
	}

	// 3. Record the outcome and release the session
	s.mu.Lock()
	defer s.mu.Unlock()
	s.busy = false

	var reply models.ChatMessage
	if err != nil {
		log.Warn().Err(err).Int("turns", len(s.history)/2).Msg("Chat send failed")
		reply = models.ChatMessage{Role: models.RoleModel, Text: chatFailurePrefix + chatFailureReason(ctx, err)}
	} else {
		reply = models.ChatMessage{Role: models.RoleModel, Text: text}
		s.history = append(s.history, userTurn, GeminiContent{Role: string(models.RoleModel), Parts: []GeminiPart{textPart(text)}})
	}
	s.transcript = append(s.transcript, reply)
	return reply, nil
}

func chatFailureReason(ctx context.Context, err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
		return "The assistant took too long to answer. Please try again."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled. Please try again."
	default:
		return "An error occurred while communicating with the AI. Please try again."
	}
}
