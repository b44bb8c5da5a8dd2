package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"family-llm/internal/app"
	"family-llm/internal/store"
)

// SessionHandler mantiene dependencias para los endpoints de sesiones.
type SessionHandler struct {
	logger  *zap.Logger
	manager *app.Manager
}

// NewSessionHandler crea una instancia de SessionHandler con sus dependencias.
func NewSessionHandler(logger *zap.Logger, manager *app.Manager) *SessionHandler {
	return &SessionHandler{logger: logger, manager: manager}
}

// CreateSession maneja POST /session.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req struct {
		UserID string `json:"user_id"`
	}
	// El cuerpo es opcional; sin user_id la sesion queda anonima.
	_ = c.ShouldBindJSON(&req)

	userID := req.UserID
	if identity, ok := GetIdentity(c); ok {
		userID = identity
	}

	sessionID := uuid.NewString()
	phase, err := h.manager.Start(c.Request.Context(), sessionID, userID)
	if err != nil {
		h.logger.Error("create session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create session"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session_id": sessionID, "phase": phase})
}

// PostMessage maneja POST /session/:id/message.
func (h *SessionHandler) PostMessage(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		Message string `json:"message" binding:"required"`
		UserID  string `json:"user_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid post message request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	if _, err := h.manager.Start(c.Request.Context(), sessionID, req.UserID); err != nil {
		h.logger.Error("load session failed", zap.Error(err), zap.String("session_id", sessionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}

	outcome, err := h.manager.Message(c.Request.Context(), sessionID, req.Message)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		h.logger.Error("message turn failed", zap.Error(err), zap.String("session_id", sessionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not process message"})
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// GetSession maneja GET /session/:id.
func (h *SessionHandler) GetSession(c *gin.Context) {
	sessionID := c.Param("id")

	data, err := h.manager.Snapshot(c.Request.Context(), sessionID)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	if err != nil {
		h.logger.Error("load session failed", zap.Error(err), zap.String("session_id", sessionID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"user_id":    data.UserID,
		"profile":    data.Profile,
		"history":    data.History,
		"family_log": data.FamilyLog,
		"plan":       data.Plan,
	})
}

// GetPersonas maneja GET /session/:id/personas.
func (h *SessionHandler) GetPersonas(c *gin.Context) {
	personas := h.manager.Personas(c.Param("id"))
	if personas == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "family not built yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"personas": personas})
}

// DeleteSession maneja DELETE /session/:id.
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	if err := h.manager.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.logger.Error("delete session failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete session"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}
