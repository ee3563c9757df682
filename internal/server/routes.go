package server

import (
	"net/http"

	"HealthBuddy/internal/utility"

	"github.com/labstack/echo/v4/middleware"
)

func (s *Server) RegisterRoutes() http.Handler {
	e := utility.NewEcho()

	e.GET("/health", s.healthHandler)

	api := e.Group("/api")

	// Structured analysis
	api.POST("/medicine", s.MedicineHandler)
	api.POST("/prescription", s.PrescriptionHandler, middleware.BodyLimit("25M"))
	api.POST("/symptoms", s.SymptomsHandler)

	// Translation
	api.POST("/translate", s.TranslateHandler)
	api.POST("/translate/comparison", s.TranslateComparisonHandler)

	// Chat
	api.POST("/chat/sessions", s.CreateChatSessionHandler)
	api.GET("/chat/sessions/:session_id", s.GetChatSessionHandler)
	api.POST("/chat/sessions/:session_id/messages", s.SendChatMessageHandler)
	api.GET("/chat/sessions/:session_id/ws", s.ChatSocketHandler)

	// Summary relay
	api.POST("/prescription/summary", s.SendSummaryHandler)

	return e
}
