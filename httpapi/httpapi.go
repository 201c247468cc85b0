// Package httpapi exposes a thin, read-mostly status surface over a
// workspace of sessions: health, session status, and last-error lookup,
// plus an optional resume trigger. It is not the primary way to drive the
// pipeline (callers normally invoke pipeline.Runner directly) — it exists
// for operators and dashboards to poll session state over HTTP, grounded
// on the gin.Engine wiring in
// examples/orchestration-example/main.go (health/status/capabilities
// routes, gin.Logger()+gin.Recovery() middleware, PORT env var).
package httpapi

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"github.com/holodeck-scenegen/scenegen/herr"
	"github.com/holodeck-scenegen/scenegen/holog"
	"github.com/holodeck-scenegen/scenegen/scene"
	"github.com/holodeck-scenegen/scenegen/store"
)

// ResumeFunc restarts a session's pipeline from the given stage (empty
// means "from the beginning"). It runs synchronously from the request
// goroutine — callers that want async resume should wrap it themselves.
type ResumeFunc func(sessionID, fromStage string) error

// Server wires a Store (and optionally a resume hook) into a gin.Engine.
type Server struct {
	Store  *store.Store
	Resume ResumeFunc
	Logger holog.Logger
}

// Router builds the gin.Engine, matching the teacher's ReleaseMode +
// Logger + Recovery setup.
func (s *Server) Router() *gin.Engine {
	if s.Logger == nil {
		s.Logger = holog.NoOp{}
	}
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.GET("/sessions", s.handleListSessions)
	router.GET("/sessions/:id", s.handleSessionStatus)
	router.GET("/sessions/:id/errors/last", s.handleLastError)
	router.POST("/sessions/:id/resume", s.handleResume)

	return router
}

// Addr returns ":"+PORT, defaulting to ":8080" as the teacher example does.
func Addr() string {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	return ":" + port
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "scenegen-pipeline",
	})
}

func (s *Server) handleListSessions(c *gin.Context) {
	sessions, err := s.Store.ListSessions()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func (s *Server) handleSessionStatus(c *gin.Context) {
	sessionID := c.Param("id")
	var session scene.Session
	if err := s.Store.ReadJSON(sessionID, "session.json", &session); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found", "session_id": sessionID})
		return
	}
	c.JSON(http.StatusOK, session)
}

func (s *Server) handleLastError(c *gin.Context) {
	sessionID := c.Param("id")
	var failure herr.FailureResponse
	if err := s.Store.ReadJSON(sessionID, "errors/last_error.json", &failure); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no recorded failure", "session_id": sessionID})
		return
	}
	c.JSON(http.StatusOK, failure)
}

func (s *Server) handleResume(c *gin.Context) {
	if s.Resume == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "resume is not configured on this server"})
		return
	}
	sessionID := c.Param("id")
	fromStage := c.Query("from_stage")
	if err := s.Resume(sessionID, fromStage); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"session_id": sessionID, "resumed_from": fromStage})
}
