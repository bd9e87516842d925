package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"studyassist/internal/app"
	"studyassist/internal/model"
	"studyassist/internal/transport/http/middleware"
	"studyassist/internal/transport/http/response"
)

type ChatHandler struct {
	chatService *app.ChatService
}

type SendMessageRequest struct {
	Message    string `json:"message" binding:"required"`
	DocumentID string `json:"document_id"`
}

type SaveHistoryRequest struct {
	DocumentID string             `json:"document_id" binding:"required"`
	Messages   []app.SavedMessage `json:"messages" binding:"required"`
}

func NewChatHandler(chatService *app.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.chatService.SendMessage(c.Request.Context(), app.SendMessageInput{
		UserID:     middleware.UserID(c),
		DocumentID: req.DocumentID,
		Message:    req.Message,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "process message failed")
		}
		return
	}
	response.OK(c, result)
}

// StreamMessage delivers the reply over SSE: "data:" events carry the
// text as it is generated, the final "done" event carries the full
// result as JSON.
func (h *ChatHandler) StreamMessage(c *gin.Context) {
	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "stream not supported")
		return
	}

	result, err := h.chatService.StreamMessage(c.Request.Context(), app.SendMessageInput{
		UserID:     middleware.UserID(c),
		DocumentID: req.DocumentID,
		Message:    req.Message,
	}, func(chunk string) error {
		if _, writeErr := c.Writer.Write([]byte("data: " + sanitizeSSE(chunk) + "\n\n")); writeErr != nil {
			return writeErr
		}
		flusher.Flush()
		return nil
	})
	if err != nil {
		msg := "process message failed"
		if errors.Is(err, app.ErrDocumentNotFound) || errors.Is(err, app.ErrInvalidInput) {
			msg = err.Error()
		}
		if _, writeErr := c.Writer.Write([]byte("event: error\ndata: " + sanitizeSSE(msg) + "\n\n")); writeErr == nil {
			flusher.Flush()
		}
		return
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		payload = []byte(`{}`)
	}
	if _, writeErr := c.Writer.Write([]byte("event: done\ndata: " + sanitizeSSE(string(payload)) + "\n\n")); writeErr == nil {
		flusher.Flush()
	}
}

func (h *ChatHandler) GetHistory(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			limit = v
		}
	}

	result, err := h.chatService.GetHistory(c.Request.Context(), middleware.UserID(c), c.Param("documentID"), limit)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch history failed")
		}
		return
	}

	messages := make([]gin.H, len(result.Messages))
	for i, m := range result.Messages {
		messages[i] = messageView(m)
	}
	response.OK(c, gin.H{
		"session":  result.Session,
		"messages": messages,
	})
}

func (h *ChatHandler) SaveHistory(c *gin.Context) {
	var req SaveHistoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	err := h.chatService.SaveHistory(c.Request.Context(), app.SaveHistoryInput{
		UserID:     middleware.UserID(c),
		DocumentID: req.DocumentID,
		Messages:   req.Messages,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "save history failed")
		}
		return
	}
	response.OK(c, gin.H{"saved": true})
}

// Export streams the transcript as a text attachment rather than the
// JSON envelope.
func (h *ChatHandler) Export(c *gin.Context) {
	format := c.DefaultQuery("format", "txt")

	transcript, err := h.chatService.ExportTranscript(middleware.UserID(c), c.Param("documentID"), format)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrUnsupportedFormat):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound), errors.Is(err, app.ErrNoChatHistory):
			response.Error(c, http.StatusNotFound, response.CodeNotFound, err.Error())
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "export transcript failed")
		}
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", transcript.Filename))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(transcript.Content))
}

// sanitizeSSE keeps one event per payload; raw newlines would split it.
func sanitizeSSE(input string) string {
	replaced := strings.ReplaceAll(input, "\r\n", "\\n")
	return strings.ReplaceAll(replaced, "\n", "\\n")
}

// messageView expands the stored source-chunk JSON into structured
// citations for clients.
func messageView(m model.ChatMessage) gin.H {
	return gin.H{
		"id":              m.ID,
		"chat_session_id": m.ChatSessionID,
		"sender":          m.Sender,
		"text":            m.Text,
		"source_chunks":   m.Sources(),
		"timestamp":       m.Timestamp,
	}
}
