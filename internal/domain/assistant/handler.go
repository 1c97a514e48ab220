package assistant

import (
	"crypto/subtle"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"firepm/internal/pkg/response"
)

type Handler struct {
	service *Service
	secret  string
}

func NewHandler(service *Service, secret string) *Handler {
	return &Handler{service: service, secret: secret}
}

type webhookRequest struct {
	Message struct {
		ToolCalls []struct {
			ID       string `json:"id"`
			Function struct {
				Name      string          `json:"name"`
				Arguments json.RawMessage `json:"arguments"`
			} `json:"function"`
		} `json:"toolCalls"`
	} `json:"message"`
}

type toolResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

// Webhook receives tool-call batches from the phone assistant. Failed
// calls get an error string as their result so the assistant can read
// the failure back instead of the whole batch aborting.
func (h *Handler) Webhook(c *gin.Context) {
	secret := c.GetHeader("X-Assistant-Secret")
	if h.secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(h.secret)) != 1 {
		response.Error(c, http.StatusUnauthorized, "UNAUTHORIZED", "Invalid assistant secret")
		return
	}

	var req webhookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "BAD_REQUEST", "Invalid webhook body")
		return
	}

	results := make([]toolResult, 0, len(req.Message.ToolCalls))
	for _, call := range req.Message.ToolCalls {
		out, err := h.service.HandleToolCall(c.Request.Context(), call.Function.Name, call.Function.Arguments)
		if err != nil {
			log.Printf("assistant: tool=%s call=%s error=%v", call.Function.Name, call.ID, err)
			out = "Sorry, I could not complete that request."
		}
		results = append(results, toolResult{ToolCallID: call.ID, Result: out})
	}

	c.JSON(http.StatusOK, gin.H{"results": results})
}
