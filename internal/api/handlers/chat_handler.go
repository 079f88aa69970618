package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shreyasprabhudev/Tranquil/internal/services"
	"github.com/shreyasprabhudev/Tranquil/internal/utils"
)

type ChatHandler struct {
	svc services.ChatService
}

func NewChatHandler(svc services.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

type ChatRequest struct {
	Message string `json:"message" binding:"required,min=1,max=2000"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

func (h *ChatHandler) Send(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "ChatHandler.Send",
			"message must be between 1 and 2000 characters", err))
		return
	}

	reply, err := h.svc.Send(c.Request.Context(), userID, req.Message)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Response: reply})
}

type HistoryTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

func (h *ChatHandler) History(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	turns := h.svc.History(userID)
	out := make([]HistoryTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, HistoryTurn{Role: t.Role, Content: t.Content})
	}

	c.JSON(http.StatusOK, gin.H{"conversation": out})
}

func (h *ChatHandler) Clear(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	h.svc.ClearHistory(userID)
	c.JSON(http.StatusOK, gin.H{"message": "Conversation history cleared"})
}
