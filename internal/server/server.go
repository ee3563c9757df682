/*
Package server implements the application's network transport layer.
It exposes the AI gateway operations over HTTP and websockets and owns the
registry of live chat sessions.
*/
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"HealthBuddy/internal/config"
	"HealthBuddy/internal/geminiservice"
	"HealthBuddy/internal/models"
)

// SummarySender delivers a prescription summary to the patient.
type SummarySender interface {
	SendSummary(ctx context.Context, name, phone string, info models.PrescriptionInfo) error
}

// Server defines the configuration and dependencies for the HTTP service.
type Server struct {
	// port specifies the TCP port the server will listen on.
	port int

	// gateway issues every model request.
	gateway *geminiservice.Gateway

	// sessions holds the chat sessions callers address by id.
	sessions *SessionStore

	// summaries forwards prescription summaries to the relay backend.
	summaries SummarySender

	startTime time.Time
}

// NewServer wires the API dependencies together.
func NewServer(cfg config.API, gateway *geminiservice.Gateway, summaries SummarySender) *Server {
	return &Server{
		port:      cfg.Port,
		gateway:   gateway,
		sessions:  NewSessionStore(cfg.ChatMaxSessions, cfg.ChatSessionTTL),
		summaries: summaries,
		startTime: time.Now(),
	}
}

// HTTPServer returns a configured *http.Server with production network timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  30 * time.Second, // prescription uploads can be large
		WriteTimeout: 90 * time.Second, // model calls dominate response time
	}
}
