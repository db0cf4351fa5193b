package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apptrade "github.com/wcpa/backend/internal/application/trade"
	"github.com/wcpa/backend/internal/domain/shared"
	"github.com/wcpa/backend/internal/domain/trade"
	"github.com/wcpa/backend/internal/infrastructure/document"
	"github.com/wcpa/backend/internal/infrastructure/mail"
	"github.com/wcpa/backend/internal/interfaces/http/dto"
)

// stubOrderRepo implements trade.OrderRepository
type stubOrderRepo struct {
	createErr error
	created   *trade.Order
}

func (r *stubOrderRepo) Create(ctx context.Context, order *trade.Order) error {
	r.created = order
	return r.createErr
}

func (r *stubOrderRepo) InsertItems(ctx context.Context, orderID uuid.UUID, items []trade.OrderItem) error {
	return nil
}

func (r *stubOrderRepo) MarkIncomplete(ctx context.Context, orderID uuid.UUID) error {
	return nil
}

func (r *stubOrderRepo) FindByID(ctx context.Context, id uuid.UUID) (*trade.Order, error) {
	return nil, shared.ErrNotFound
}

// stubRenderer implements apptrade.DocumentRenderer
type stubRenderer struct{}

func (stubRenderer) RenderPurchaseOrder(ctx context.Context, data document.PurchaseOrderData) ([]byte, error) {
	return []byte("<html></html>"), nil
}

// stubMailer implements apptrade.Mailer
type stubMailer struct {
	sent []mail.Message
}

func (m *stubMailer) Send(ctx context.Context, msg mail.Message) error {
	m.sent = append(m.sent, msg)
	return nil
}

func newOrderRouter(orderRepo *stubOrderRepo, mailer *stubMailer) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := apptrade.NewOrderService(apptrade.OrderServiceConfig{
		OrderRepo:   orderRepo,
		AddressRepo: &stubAddressRepo{},
		Renderer:    stubRenderer{},
		Mailer:      mailer,
		Logger:      zap.NewNop(),
	})
	h := NewOrderHandler(service, zap.NewNop())

	engine := gin.New()
	engine.POST("/create-order", h.CreateOrder)
	return engine
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	orderRepo := &stubOrderRepo{}
	mailer := &stubMailer{}
	engine := newOrderRouter(orderRepo, mailer)

	w := postJSON(t, engine, "/create-order", gin.H{
		"userId":       "user-1",
		"email":        "jo@example.com",
		"customerName": "Jo Smith",
		"items": []gin.H{
			{"sku": "GLV-100", "name": "Nitrile Gloves", "unitPrice": "12.50", "quantity": 2},
			{"sku": "MSK-200", "name": "Surgical Masks", "unitPrice": "8.75", "quantity": 1},
		},
		"shippingAddress": gin.H{
			"firstName": "Jo", "lastName": "Smith",
			"line1": "1 Main St", "city": "Springfield", "state": "IL", "postalCode": "62701",
		},
		"billingAddress": gin.H{
			"firstName": "Jo", "lastName": "Smith",
			"line1": "9 Oak Ave", "city": "Springfield", "state": "IL", "postalCode": "62702",
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "33.75", fmt.Sprintf("%v", body["subtotal"]))
	assert.Equal(t, "2.7", fmt.Sprintf("%v", body["tax"]))
	assert.Equal(t, "36.45", fmt.Sprintf("%v", body["total"]))
	assert.Equal(t, string(trade.OrderStatusCreated), body["status"])
	assert.Equal(t, true, body["emailSent"])

	require.NotNil(t, orderRepo.created)
	assert.Equal(t, "user-1", orderRepo.created.UserID)
	require.Len(t, mailer.sent, 1)
	assert.Equal(t, "jo@example.com", mailer.sent[0].To)
}

func TestOrderHandler_CreateOrder_WithAddresses(t *testing.T) {
	orderRepo := &stubOrderRepo{}
	mailer := &stubMailer{}
	engine := newOrderRouter(orderRepo, mailer)

	w := postJSON(t, engine, "/create-order", gin.H{
		"userId":       "user-1",
		"email":        "jo@example.com",
		"customerName": "Jo Smith",
		"items": []gin.H{
			{"sku": "GLV-100", "name": "Nitrile Gloves", "unitPrice": "12.50", "quantity": 1},
		},
		"shippingAddress": gin.H{
			"firstName": "Jo", "lastName": "Smith",
			"line1": "42 Pine Ct", "city": "Springfield", "state": "IL", "postalCode": "62704",
		},
		"billingAddress": gin.H{
			"firstName": "Jo", "lastName": "Smith",
			"line1": "7 Birch Ln", "city": "Springfield", "state": "IL", "postalCode": "62705",
		},
	})

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["emailSent"])
	assert.NotContains(t, body, "warning")
	require.Len(t, mailer.sent, 1)
}

func TestOrderHandler_CreateOrder_InvalidPrice(t *testing.T) {
	engine := newOrderRouter(&stubOrderRepo{}, &stubMailer{})

	w := postJSON(t, engine, "/create-order", gin.H{
		"userId": "user-1",
		"email":  "jo@example.com",
		"items": []gin.H{
			{"sku": "GLV-100", "name": "Gloves", "unitPrice": "twelve", "quantity": 1},
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error.Message, "GLV-100")
}

func TestOrderHandler_CreateOrder_MissingItems(t *testing.T) {
	engine := newOrderRouter(&stubOrderRepo{}, &stubMailer{})

	w := postJSON(t, engine, "/create-order", gin.H{
		"userId": "user-1",
		"email":  "jo@example.com",
		"items":  []gin.H{},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOrderHandler_CreateOrder_LedgerFailure(t *testing.T) {
	orderRepo := &stubOrderRepo{createErr: fmt.Errorf("connection refused")}
	engine := newOrderRouter(orderRepo, &stubMailer{})

	w := postJSON(t, engine, "/create-order", gin.H{
		"userId": "user-1",
		"email":  "jo@example.com",
		"items": []gin.H{
			{"sku": "GLV-100", "name": "Gloves", "unitPrice": "12.50", "quantity": 1},
		},
		"shippingAddress": gin.H{"line1": "1 Main St", "city": "Springfield", "state": "IL", "postalCode": "62701"},
		"billingAddress":  gin.H{"line1": "9 Oak Ave", "city": "Springfield", "state": "IL", "postalCode": "62702"},
	})

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var resp dto.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, shared.CodeLedgerWrite, resp.Error.Code)
}
