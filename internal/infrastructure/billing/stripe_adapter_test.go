package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/form"
	"go.uber.org/zap"
)

// mockBackend implements stripe.Backend for testing
type mockBackend struct {
	handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)
}

func (m *mockBackend) Call(method, path, key string, params stripe.ParamsContainer, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, params)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallStreaming(method, path, key string, params stripe.ParamsContainer, v stripe.StreamingLastResponseSetter) error {
	return nil
}

// CallRaw serves the list endpoints, which bypass Call in stripe-go.
func (m *mockBackend) CallRaw(method, path, key string, body *form.Values, params *stripe.Params, v stripe.LastResponseSetter) error {
	data, err := m.handler(method, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func (m *mockBackend) CallMultipart(method, path, key, boundary string, body *bytes.Buffer, params *stripe.Params, v stripe.LastResponseSetter) error {
	return nil
}

func (m *mockBackend) SetMaxNetworkRetries(maxNetworkRetries int64) {}

// testConfig returns a valid test configuration
func testConfig() *StripeConfig {
	return &StripeConfig{
		SecretKey:     "sk_test_123456789",
		WebhookSecret: "whsec_test_123456789",
		IsTestMode:    true,
		SuccessURL:    "https://shop.example.com/success",
		CancelURL:     "https://shop.example.com/cancel",
	}
}

func testLogger() *zap.Logger {
	return zap.NewNop()
}

// setupMockBackend sets up a mock Stripe backend for testing
func setupMockBackend(handler func(method, path string, params stripe.ParamsContainer) ([]byte, error)) func() {
	mock := &mockBackend{handler: handler}
	stripe.SetBackend(stripe.APIBackend, mock)
	return func() {
		stripe.SetBackend(stripe.APIBackend, nil)
	}
}

func newTestAdapter(t *testing.T) *StripeAdapter {
	t.Helper()
	adapter, err := NewStripeAdapter(testConfig(), testLogger())
	require.NoError(t, err)
	return adapter
}

func TestNewStripeAdapter_InvalidConfig(t *testing.T) {
	tests := []struct {
		name        string
		config      *StripeConfig
		expectedErr string
	}{
		{
			name:        "missing secret key",
			config:      &StripeConfig{IsTestMode: true, WebhookSecret: "whsec_x"},
			expectedErr: "secret key is required",
		},
		{
			name: "test mode with live key",
			config: &StripeConfig{
				SecretKey:     "sk_live_123456789",
				WebhookSecret: "whsec_x",
				IsTestMode:    true,
			},
			expectedErr: "test mode enabled but secret key is not a test key",
		},
		{
			name: "live mode with test key",
			config: &StripeConfig{
				SecretKey:     "sk_test_123456789",
				WebhookSecret: "whsec_x",
				IsTestMode:    false,
			},
			expectedErr: "live mode enabled but secret key is not a live key",
		},
		{
			name: "missing webhook secret",
			config: &StripeConfig{
				SecretKey:  "sk_test_123456789",
				IsTestMode: true,
			},
			expectedErr: "webhook secret is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter, err := NewStripeAdapter(tt.config, testLogger())

			assert.Error(t, err)
			assert.Nil(t, adapter)
			assert.Contains(t, err.Error(), tt.expectedErr)
		})
	}
}

func TestCreateSetupIntent_Success(t *testing.T) {
	adapter := newTestAdapter(t)

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/setup_intents" {
			return json.Marshal(&stripe.SetupIntent{
				ID:           "seti_test123",
				ClientSecret: "seti_test123_secret_abc",
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})
	defer cleanup()

	output, err := adapter.CreateSetupIntent(context.Background(), CreateSetupIntentInput{
		UserID:  "user-1",
		PriceID: "price_abc",
	})

	require.NoError(t, err)
	assert.Equal(t, "seti_test123", output.SetupIntentID)
	assert.Equal(t, "seti_test123_secret_abc", output.ClientSecret)
}

func TestCreateCustomer_Success(t *testing.T) {
	adapter := newTestAdapter(t)

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/customers" {
			return json.Marshal(&stripe.Customer{
				ID:      "cus_test123",
				Email:   "test@example.com",
				Created: time.Now().Unix(),
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})
	defer cleanup()

	output, err := adapter.CreateCustomer(context.Background(), CreateCustomerInput{
		UserID: "user-1",
		Email:  "test@example.com",
	})

	require.NoError(t, err)
	assert.Equal(t, "cus_test123", output.CustomerID)
	assert.Equal(t, "test@example.com", output.Email)
}

func TestCreateCustomer_StripeError(t *testing.T) {
	adapter := newTestAdapter(t)

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{
			Code: stripe.ErrorCodeResourceMissing,
			Msg:  "No such resource",
		}
	})
	defer cleanup()

	output, err := adapter.CreateCustomer(context.Background(), CreateCustomerInput{
		UserID: "user-1",
		Email:  "test@example.com",
	})

	assert.Error(t, err)
	assert.Nil(t, output)
	assert.Contains(t, err.Error(), "failed to create customer")
}

func TestAttachPaymentMethod_Success(t *testing.T) {
	adapter := newTestAdapter(t)

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/payment_methods/pm_test123/attach" {
			return json.Marshal(&stripe.PaymentMethod{ID: "pm_test123"})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})
	defer cleanup()

	err := adapter.AttachPaymentMethod(context.Background(), "pm_test123", "cus_test123")
	assert.NoError(t, err)
}

func TestAttachPaymentMethod_AlreadyAttachedIsSuccess(t *testing.T) {
	adapter := newTestAdapter(t)

	// Stripe has no dedicated code for this rejection; it arrives as an
	// invalid_request_error whose message carries the discriminator.
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{
			Type: stripe.ErrorTypeInvalidRequest,
			Msg:  "The payment method you provided has already been attached to a customer.",
		}
	})
	defer cleanup()

	err := adapter.AttachPaymentMethod(context.Background(), "pm_test123", "cus_test123")
	assert.NoError(t, err)
}

func TestAttachPaymentMethod_OtherError(t *testing.T) {
	adapter := newTestAdapter(t)

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{
			Code: stripe.ErrorCodeResourceMissing,
			Msg:  "No such payment method",
		}
	})
	defer cleanup()

	err := adapter.AttachPaymentMethod(context.Background(), "pm_missing", "cus_test123")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to attach payment method")
}

func TestAttachPaymentMethod_OtherInvalidRequestStillFails(t *testing.T) {
	adapter := newTestAdapter(t)

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		return nil, &stripe.Error{
			Type: stripe.ErrorTypeInvalidRequest,
			Msg:  "The customer does not exist.",
		}
	})
	defer cleanup()

	err := adapter.AttachPaymentMethod(context.Background(), "pm_test123", "cus_missing")
	assert.Error(t, err)
}

func TestSetDefaultPaymentMethod_Success(t *testing.T) {
	adapter := newTestAdapter(t)

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/customers/cus_test123" {
			return json.Marshal(&stripe.Customer{ID: "cus_test123"})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})
	defer cleanup()

	err := adapter.SetDefaultPaymentMethod(context.Background(), "cus_test123", "pm_test123")
	assert.NoError(t, err)
}

func TestCreateSubscription_Success(t *testing.T) {
	adapter := newTestAdapter(t)

	periodEnd := time.Now().Add(30 * 24 * time.Hour).Unix()
	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/subscriptions" {
			return json.Marshal(&stripe.Subscription{
				ID:               "sub_test123",
				Status:           stripe.SubscriptionStatusActive,
				Customer:         &stripe.Customer{ID: "cus_test123"},
				CurrentPeriodEnd: periodEnd,
				Items: &stripe.SubscriptionItemList{
					Data: []*stripe.SubscriptionItem{
						{Price: &stripe.Price{ID: "price_abc"}},
					},
				},
				LatestInvoice: &stripe.Invoice{
					ID: "in_test123",
					PaymentIntent: &stripe.PaymentIntent{
						ClientSecret: "pi_secret_abc",
					},
				},
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})
	defer cleanup()

	output, err := adapter.CreateSubscription(context.Background(), CreateSubscriptionInput{
		UserID:     "user-1",
		CustomerID: "cus_test123",
		PriceID:    "price_abc",
	})

	require.NoError(t, err)
	assert.Equal(t, "sub_test123", output.SubscriptionID)
	assert.Equal(t, "cus_test123", output.CustomerID)
	assert.Equal(t, "active", output.Status)
	assert.Equal(t, "price_abc", output.PriceID)
	assert.Equal(t, "pi_secret_abc", output.ClientSecret)
	assert.Equal(t, time.Unix(periodEnd, 0), output.CurrentPeriodEnd)
}

func TestRetrievePaymentMethod_Success(t *testing.T) {
	adapter := newTestAdapter(t)

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "GET" && path == "/v1/payment_methods/pm_test123" {
			return json.Marshal(&stripe.PaymentMethod{
				ID: "pm_test123",
				BillingDetails: &stripe.PaymentMethodBillingDetails{
					Name:  "Jo Smith",
					Email: "jo@example.com",
					Address: &stripe.Address{
						Line1:      "1 Main St",
						City:       "Springfield",
						State:      "IL",
						PostalCode: "62701",
						Country:    "US",
					},
				},
				Card: &stripe.PaymentMethodCard{
					Brand: stripe.PaymentMethodCardBrandVisa,
					Last4: "4242",
				},
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})
	defer cleanup()

	output, err := adapter.RetrievePaymentMethod(context.Background(), "pm_test123")

	require.NoError(t, err)
	assert.Equal(t, "Jo Smith", output.BillingDetails.Name)
	assert.Equal(t, "1 Main St", output.BillingDetails.Line1)
	assert.Equal(t, "62701", output.BillingDetails.PostalCode)
	assert.Equal(t, "visa", output.CardBrand)
	assert.Equal(t, "4242", output.CardLast4)
}

func TestCreateCheckoutSession_Success(t *testing.T) {
	adapter := newTestAdapter(t)

	cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
		if method == "POST" && path == "/v1/checkout/sessions" {
			return json.Marshal(&stripe.CheckoutSession{
				ID:  "cs_test123",
				URL: "https://checkout.stripe.com/c/pay/cs_test123",
			})
		}
		return nil, fmt.Errorf("unexpected call: %s %s", method, path)
	})
	defer cleanup()

	output, err := adapter.CreateCheckoutSession(context.Background(), CreateCheckoutSessionInput{
		UserID: "user-1",
		Items: []CheckoutItem{
			{Name: "Nitrile Gloves", UnitAmount: 1250, Quantity: 2},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, "cs_test123", output.SessionID)
	assert.Equal(t, "https://checkout.stripe.com/c/pay/cs_test123", output.URL)
}

func TestResolvePriceForProduct(t *testing.T) {
	adapter := newTestAdapter(t)

	t.Run("returns first active price", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			if method == "GET" && path == "/v1/prices" {
				return json.Marshal(&stripe.PriceList{
					Data: []*stripe.Price{{ID: "price_abc"}},
				})
			}
			return nil, fmt.Errorf("unexpected call: %s %s", method, path)
		})
		defer cleanup()

		priceID, err := adapter.ResolvePriceForProduct(context.Background(), "prod_123")
		require.NoError(t, err)
		assert.Equal(t, "price_abc", priceID)
	})

	t.Run("errors when no active price exists", func(t *testing.T) {
		cleanup := setupMockBackend(func(method, path string, params stripe.ParamsContainer) ([]byte, error) {
			return json.Marshal(&stripe.PriceList{Data: []*stripe.Price{}})
		})
		defer cleanup()

		_, err := adapter.ResolvePriceForProduct(context.Background(), "prod_123")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "no active price")
	})
}
