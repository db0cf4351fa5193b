package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/wcpa/backend/internal/application/billing"
)

// maxWebhookBody caps the webhook payload to keep a hostile sender from
// streaming an unbounded body. Stripe events are small.
const maxWebhookBody = 1 << 20

// StripeWebhookHandler handles POST /webhook
type StripeWebhookHandler struct {
	BaseHandler
	service *appbilling.StripeWebhookService
	logger  *zap.Logger
}

// NewStripeWebhookHandler creates a new StripeWebhookHandler
func NewStripeWebhookHandler(service *appbilling.StripeWebhookService, logger *zap.Logger) *StripeWebhookHandler {
	return &StripeWebhookHandler{service: service, logger: logger}
}

// HandleWebhook verifies and processes a Stripe event. A processing failure
// after signature verification returns 500 so Stripe redelivers the event.
func (h *StripeWebhookHandler) HandleWebhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		h.BadRequest(c, "Failed to read request body")
		return
	}

	signature := c.GetHeader("Stripe-Signature")

	result, err := h.service.ProcessWebhook(c.Request.Context(), payload, signature)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"received":  true,
		"eventId":   result.EventID,
		"eventType": result.EventType,
		"message":   result.Message,
	})
}
