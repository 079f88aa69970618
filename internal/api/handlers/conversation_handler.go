package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/shreyasprabhudev/Tranquil/internal/services"
)

type ConversationHandler struct {
	svc services.ChatService
}

func NewConversationHandler(svc services.ChatService) *ConversationHandler {
	return &ConversationHandler{svc: svc}
}

func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var archived *bool
	if v := c.Query("archived"); v != "" {
		b := strings.EqualFold(v, "true")
		archived = &b
	}

	rows, err := h.svc.ListConversations(c.Request.Context(), userID, archived)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": rows})
}

func (h *ConversationHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	conv, err := h.svc.GetConversation(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversation": conv})
}

func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.svc.ListMessages(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": rows})
}

func (h *ConversationHandler) Archive(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	conv, err := h.svc.ToggleArchive(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}

	status := "conversation unarchived"
	if conv.IsArchived {
		status = "conversation archived"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "conversation": conv})
}
