package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appbilling "github.com/wcpa/backend/internal/application/billing"
	"github.com/wcpa/backend/internal/interfaces/http/dto"
)

// SubscriptionHandler handles the storefront subscription and checkout
// endpoints. Successful responses are flat payloads, matching what the
// frontend's payment form consumes.
type SubscriptionHandler struct {
	BaseHandler
	service *appbilling.SubscriptionService
	logger  *zap.Logger
}

// NewSubscriptionHandler creates a new SubscriptionHandler
func NewSubscriptionHandler(service *appbilling.SubscriptionService, logger *zap.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{service: service, logger: logger}
}

// CreateSetupIntentRequest is the payload of POST /create-subscription-intent
type CreateSetupIntentRequest struct {
	UserID    string `json:"userId" binding:"required"`
	PriceID   string `json:"priceId"`
	ProductID string `json:"productId"`
}

// CreateSetupIntent handles POST /create-subscription-intent
func (h *SubscriptionHandler) CreateSetupIntent(c *gin.Context) {
	var req CreateSetupIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.FormatBindingError(err))
		return
	}

	result, err := h.service.CreateSetupIntent(c.Request.Context(), appbilling.CreateSetupIntentCommand{
		UserID:    req.UserID,
		PriceID:   req.PriceID,
		ProductID: req.ProductID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CustomerInfoRequest identifies the subscribing customer. UserID is
// optional on the wire; anonymous checkouts are keyed by email.
type CustomerInfoRequest struct {
	Email  string `json:"email" binding:"required,email"`
	UserID string `json:"userId"`
	Name   string `json:"name"`
}

// SubscribeRequest is the payload of POST /create-subscription
type SubscribeRequest struct {
	PaymentMethodID string              `json:"paymentMethodId" binding:"required"`
	PriceID         string              `json:"priceId"`
	ProductID       string              `json:"productId"`
	CustomerInfo    CustomerInfoRequest `json:"customerInfo" binding:"required"`
	RequestID       string              `json:"requestId"`
}

// Subscribe handles POST /create-subscription
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.FormatBindingError(err))
		return
	}

	userID := req.CustomerInfo.UserID
	if userID == "" {
		userID = req.CustomerInfo.Email
	}

	result, err := h.service.Subscribe(c.Request.Context(), appbilling.SubscribeCommand{
		UserID:          userID,
		Email:           req.CustomerInfo.Email,
		Name:            req.CustomerInfo.Name,
		PaymentMethodID: req.PaymentMethodID,
		PriceID:         req.PriceID,
		ProductID:       req.ProductID,
		RequestID:       req.RequestID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CheckSubscriptionRequest is the payload of POST /check-subscription
type CheckSubscriptionRequest struct {
	UserID string `json:"userId" binding:"required"`
}

// CheckSubscription handles POST /check-subscription
func (h *SubscriptionHandler) CheckSubscription(c *gin.Context) {
	var req CheckSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.FormatBindingError(err))
		return
	}

	result, err := h.service.CheckSubscription(c.Request.Context(), req.UserID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// CheckoutItemRequest is one line of a checkout request
type CheckoutItemRequest struct {
	Name       string `json:"name" binding:"required"`
	UnitAmount int64  `json:"unitAmount" binding:"required,gt=0"`
	Quantity   int64  `json:"quantity" binding:"required,gt=0"`
}

// CreateCheckoutSessionRequest is the payload of POST /create-checkout-session.
// A priceId yields a subscription-mode session; items yield a one-off
// payment session.
type CreateCheckoutSessionRequest struct {
	UserID     string                `json:"userId" binding:"required"`
	Email      string                `json:"email" binding:"omitempty,email"`
	PriceID    string                `json:"priceId"`
	Items      []CheckoutItemRequest `json:"items" binding:"omitempty,dive"`
	SuccessURL string                `json:"successUrl"`
	CancelURL  string                `json:"cancelUrl"`
}

// CreateCheckoutSession handles POST /create-checkout-session
func (h *SubscriptionHandler) CreateCheckoutSession(c *gin.Context) {
	var req CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.FormatBindingError(err))
		return
	}

	items := make([]appbilling.CheckoutItemCommand, len(req.Items))
	for i, item := range req.Items {
		items[i] = appbilling.CheckoutItemCommand{
			Name:       item.Name,
			UnitAmount: item.UnitAmount,
			Quantity:   item.Quantity,
		}
	}

	result, err := h.service.CreateCheckoutSession(c.Request.Context(), appbilling.CreateCheckoutSessionCommand{
		UserID:     req.UserID,
		Email:      req.Email,
		PriceID:    req.PriceID,
		Items:      items,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
