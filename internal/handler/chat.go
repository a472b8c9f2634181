package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"astral-server/internal/ai"
	"astral-server/internal/bridge"
	"astral-server/internal/hub"
	"astral-server/internal/middleware"
	"astral-server/internal/model"
	"astral-server/internal/store"
)

type ChatHandler struct {
	Store     *store.Store
	Hub       *hub.Hub
	Assistant *ai.Assistant
	Systems   *SystemHandler
}

const (
	noSystemResponse      = "Please select a system first, or connect one of your systems to ask about your data."
	invalidSystemResponse = "System not found or inactive. Please check your system connection."
)

type createSessionBody struct {
	SessionName string `json:"session_name"`
	SystemID    *uint  `json:"system_id"`
}

func (h *ChatHandler) CreateSession(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	var body createSessionBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	session := model.ChatSession{
		UserID:      user.ID,
		SystemID:    body.SystemID,
		SessionName: body.SessionName,
	}
	if err := h.Store.CreateSession(&session); err != nil {
		internalError(c, "create session", err)
		return
	}

	log.Printf("user %d created chat session: %s", user.ID, session.SessionName)
	c.JSON(http.StatusOK, session)
}

func (h *ChatHandler) ListSessions(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	sessions, err := h.Store.ListSessions(user.ID)
	if err != nil {
		internalError(c, "list sessions", err)
		return
	}

	resp := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		var systemName *string
		if session.SystemID != nil {
			if system, err := h.Store.GetSystem(user.ID, *session.SystemID); err == nil {
				systemName = &system.SystemName
			}
		}
		resp = append(resp, gin.H{
			"id":           session.ID,
			"user_id":      session.UserID,
			"system_id":    session.SystemID,
			"session_name": session.SessionName,
			"created_at":   session.CreatedAt,
			"updated_at":   session.UpdatedAt,
			"system_name":  systemName,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ChatHandler) Messages(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	session, ok := h.lookupSession(c, user.ID)
	if !ok {
		return
	}

	messages, err := h.Store.ListMessages(session.ID)
	if err != nil {
		internalError(c, "list messages", err)
		return
	}

	resp := make([]gin.H, 0, len(messages))
	for _, msg := range messages {
		resp = append(resp, messageResponse(msg))
	}
	c.JSON(http.StatusOK, resp)
}

type sendMessageBody struct {
	Message  string `json:"message" binding:"required"`
	SystemID *uint  `json:"system_id"`
}

// SendMessage is the chat pipeline: persist the user's message, run the AI
// orchestration against the effective system, persist and push the AI reply.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	session, ok := h.lookupSession(c, user.ID)
	if !ok {
		return
	}

	var body sendMessageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	userMessage := model.ChatMessage{
		SessionID: session.ID,
		UserID:    user.ID,
		Message:   body.Message,
		IsUser:    true,
	}
	if err := h.Store.CreateMessage(&userMessage); err != nil {
		internalError(c, "send message", err)
		return
	}

	// The per-message binding wins over the session binding.
	systemID := session.SystemID
	if body.SystemID != nil {
		systemID = body.SystemID
	}

	aiMessage := model.ChatMessage{
		SessionID: session.ID,
		UserID:    user.ID,
		IsUser:    false,
	}

	switch {
	case systemID == nil:
		aiMessage.Message = noSystemResponse
	default:
		system, err := h.Store.GetActiveSystem(user.ID, *systemID)
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				internalError(c, "send message", err)
				return
			}
			aiMessage.Message = invalidSystemResponse
			break
		}

		cfg, err := h.Systems.BridgeConfig(system)
		if err != nil {
			log.Printf("chat: user=%d system=%d: %v", user.ID, system.ID, err)
			aiMessage.Message = invalidSystemResponse
			break
		}

		result := h.Assistant.ProcessChat(c.Request.Context(), body.Message, bridge.NewClient(cfg))
		aiMessage.Message = result.Response
		aiMessage.SQLQuery = result.SQLQuery
		if result.QueryResult != nil {
			if encoded, err := json.Marshal(result.QueryResult); err == nil {
				raw := string(encoded)
				aiMessage.QueryResult = &raw
			}
		}
	}

	if err := h.Store.CreateMessage(&aiMessage); err != nil {
		internalError(c, "send message", err)
		return
	}
	if err := h.Store.TouchSession(session.ID, time.Now()); err != nil {
		log.Printf("chat: touch session %d: %v", session.ID, err)
	}

	push, _ := json.Marshal(gin.H{
		"type":       "new_message",
		"message":    aiMessage.Message,
		"is_user":    false,
		"session_id": session.ID,
		"created_at": aiMessage.CreatedAt.Format(time.RFC3339),
	})
	h.Hub.SendPersonal(user.ID, push)

	c.JSON(http.StatusOK, messageResponse(aiMessage))
}

func (h *ChatHandler) DeleteSession(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	sessionID, ok := idParam(c)
	if !ok {
		return
	}

	if err := h.Store.DeleteSessionCascade(user.ID, sessionID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
			return
		}
		internalError(c, "delete session", err)
		return
	}

	log.Printf("user %d deleted chat session %d", user.ID, sessionID)
	c.JSON(http.StatusOK, gin.H{"message": "Chat session deleted successfully"})
}

func (h *ChatHandler) SessionInfo(c *gin.Context) {
	user, _ := middleware.CurrentUser(c)

	session, ok := h.lookupSession(c, user.ID)
	if !ok {
		return
	}

	messageCount, err := h.Store.CountMessages(session.ID)
	if err != nil {
		internalError(c, "session info", err)
		return
	}

	var systemInfo gin.H
	if session.SystemID != nil {
		if system, err := h.Store.GetSystem(user.ID, *session.SystemID); err == nil {
			systemInfo = gin.H{
				"id":       system.ID,
				"name":     system.SystemName,
				"type":     system.SystemType,
				"database": system.DBName,
			}
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"session": gin.H{
			"id":            session.ID,
			"name":          session.SessionName,
			"created_at":    session.CreatedAt,
			"updated_at":    session.UpdatedAt,
			"message_count": messageCount,
		},
		"system": systemInfo,
	})
}

func (h *ChatHandler) lookupSession(c *gin.Context, userID uint) (model.ChatSession, bool) {
	sessionID, ok := idParam(c)
	if !ok {
		return model.ChatSession{}, false
	}

	session, err := h.Store.GetSession(userID, sessionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		} else {
			internalError(c, "get session", err)
		}
		return model.ChatSession{}, false
	}
	return session, true
}

// messageResponse decodes the serialized query result for the client.
func messageResponse(msg model.ChatMessage) gin.H {
	var queryResult interface{}
	if msg.QueryResult != nil {
		if err := json.Unmarshal([]byte(*msg.QueryResult), &queryResult); err != nil {
			queryResult = gin.H{"raw": *msg.QueryResult}
		}
	}
	return gin.H{
		"id":           msg.ID,
		"message":      msg.Message,
		"is_user":      msg.IsUser,
		"sql_query":    msg.SQLQuery,
		"query_result": queryResult,
		"created_at":   msg.CreatedAt,
	}
}
