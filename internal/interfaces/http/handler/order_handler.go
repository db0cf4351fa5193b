package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apptrade "github.com/wcpa/backend/internal/application/trade"
	"github.com/wcpa/backend/internal/interfaces/http/dto"
)

// OrderHandler handles the storefront order endpoint
type OrderHandler struct {
	BaseHandler
	service *apptrade.OrderService
	logger  *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(service *apptrade.OrderService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{service: service, logger: logger}
}

// OrderItemRequest is one line of an order request. UnitPrice is a decimal
// string so amounts survive JSON without float drift.
type OrderItemRequest struct {
	SKU       string `json:"sku" binding:"required"`
	Name      string `json:"name" binding:"required"`
	UnitPrice string `json:"unitPrice" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gt=0"`
}

// OrderAddressRequest is a resolved address attached to an order request
type OrderAddressRequest struct {
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	Line1      string `json:"line1" binding:"required"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// CreateOrderRequest is the payload of POST /create-order. Addresses are
// optional; when omitted the customer's saved defaults are used.
type CreateOrderRequest struct {
	UserID          string               `json:"userId" binding:"required"`
	Email           string               `json:"email" binding:"required,email"`
	CustomerName    string               `json:"customerName"`
	Items           []OrderItemRequest   `json:"items" binding:"required,min=1,dive"`
	ShippingAddress *OrderAddressRequest `json:"shippingAddress"`
	BillingAddress  *OrderAddressRequest `json:"billingAddress"`
	RequestID       string               `json:"requestId"`
}

func (r *OrderAddressRequest) toCommand() *apptrade.AddressCommand {
	if r == nil {
		return nil
	}
	return &apptrade.AddressCommand{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		Line1:      r.Line1,
		Line2:      r.Line2,
		City:       r.City,
		State:      r.State,
		PostalCode: r.PostalCode,
		Country:    r.Country,
	}
}

// CreateOrder handles POST /create-order
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, dto.FormatBindingError(err))
		return
	}

	items := make([]apptrade.OrderItemCommand, len(req.Items))
	for i, item := range req.Items {
		price, err := decimal.NewFromString(item.UnitPrice)
		if err != nil {
			h.BadRequest(c, "Invalid unit price for item "+item.SKU)
			return
		}
		items[i] = apptrade.OrderItemCommand{
			SKU:       item.SKU,
			Name:      item.Name,
			UnitPrice: price,
			Quantity:  item.Quantity,
		}
	}

	result, err := h.service.PlaceOrder(c.Request.Context(), apptrade.PlaceOrderCommand{
		UserID:          req.UserID,
		Email:           req.Email,
		CustomerName:    req.CustomerName,
		Items:           items,
		ShippingAddress: req.ShippingAddress.toCommand(),
		BillingAddress:  req.BillingAddress.toCommand(),
		RequestID:       req.RequestID,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}
