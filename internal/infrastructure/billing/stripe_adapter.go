package billing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/customer"
	"github.com/stripe/stripe-go/v81/paymentmethod"
	"github.com/stripe/stripe-go/v81/price"
	"github.com/stripe/stripe-go/v81/setupintent"
	"github.com/stripe/stripe-go/v81/subscription"
	"go.uber.org/zap"

	"github.com/wcpa/backend/internal/domain/billing"
)

// StripeAdapter implements the payment gateway operations behind the
// subscription and checkout flows
type StripeAdapter struct {
	config *StripeConfig
	logger *zap.Logger
}

// NewStripeAdapter creates a new Stripe adapter
func NewStripeAdapter(config *StripeConfig, logger *zap.Logger) (*StripeAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	config.InitStripeClient()

	return &StripeAdapter{
		config: config,
		logger: logger,
	}, nil
}

// CreateSetupIntent creates a setup intent for collecting a card off-session.
// 3DS is requested unconditionally so the saved card can be charged for
// renewals without the customer present.
func (a *StripeAdapter) CreateSetupIntent(ctx context.Context, input CreateSetupIntentInput) (*CreateSetupIntentOutput, error) {
	a.logger.Debug("Creating Stripe setup intent",
		zap.String("user_id", input.UserID),
		zap.String("price_id", input.PriceID))

	params := &stripe.SetupIntentParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Usage:              stripe.String("off_session"),
		PaymentMethodOptions: &stripe.SetupIntentPaymentMethodOptionsParams{
			Card: &stripe.SetupIntentPaymentMethodOptionsCardParams{
				RequestThreeDSecure: stripe.String("any"),
			},
		},
	}
	params.Metadata = map[string]string{
		MetadataUserIDKey: input.UserID,
		"priceId":         input.PriceID,
	}

	intent, err := setupintent.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe setup intent",
			zap.String("user_id", input.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create setup intent: %w", err)
	}

	a.logger.Info("Created Stripe setup intent",
		zap.String("user_id", input.UserID),
		zap.String("setup_intent_id", intent.ID))

	return &CreateSetupIntentOutput{
		SetupIntentID: intent.ID,
		ClientSecret:  intent.ClientSecret,
	}, nil
}

// CreateCustomer creates a new customer in Stripe tagged with the user ID
func (a *StripeAdapter) CreateCustomer(ctx context.Context, input CreateCustomerInput) (*CreateCustomerOutput, error) {
	a.logger.Debug("Creating Stripe customer",
		zap.String("user_id", input.UserID),
		zap.String("email", input.Email))

	params := &stripe.CustomerParams{
		Email: stripe.String(input.Email),
	}
	if input.Name != "" {
		params.Name = stripe.String(input.Name)
	}
	params.Metadata = map[string]string{
		MetadataUserIDKey: input.UserID,
	}

	cust, err := customer.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe customer",
			zap.String("user_id", input.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create customer: %w", err)
	}

	a.logger.Info("Created Stripe customer",
		zap.String("user_id", input.UserID),
		zap.String("customer_id", cust.ID))

	return &CreateCustomerOutput{
		CustomerID: cust.ID,
		Email:      cust.Email,
		Name:       cust.Name,
		CreatedAt:  time.Unix(cust.Created, 0),
	}, nil
}

// AttachPaymentMethod attaches a payment method to a customer. A payment
// method that is already attached is treated as success so client retries
// of the subscribe flow do not fail here.
func (a *StripeAdapter) AttachPaymentMethod(ctx context.Context, paymentMethodID, customerID string) error {
	a.logger.Debug("Attaching payment method",
		zap.String("payment_method_id", paymentMethodID),
		zap.String("customer_id", customerID))

	_, err := paymentmethod.Attach(paymentMethodID, &stripe.PaymentMethodAttachParams{
		Customer: stripe.String(customerID),
	})
	if err != nil {
		if isAlreadyAttached(err) {
			a.logger.Debug("Payment method already attached",
				zap.String("payment_method_id", paymentMethodID),
				zap.String("customer_id", customerID))
			return nil
		}
		a.logger.Error("Failed to attach payment method",
			zap.String("payment_method_id", paymentMethodID),
			zap.String("customer_id", customerID),
			zap.Error(err))
		return fmt.Errorf("stripe: failed to attach payment method: %w", err)
	}

	return nil
}

// isAlreadyAttached recognizes Stripe's rejection of an attach call for a
// payment method that is already on the customer. Stripe reports it as an
// invalid_request_error with no dedicated error code, so the message text is
// the only discriminator.
func isAlreadyAttached(err error) bool {
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) {
		return false
	}
	return stripeErr.Type == stripe.ErrorTypeInvalidRequest &&
		strings.Contains(stripeErr.Msg, "already been attached")
}

// SetDefaultPaymentMethod sets the customer's default payment method for invoices
func (a *StripeAdapter) SetDefaultPaymentMethod(ctx context.Context, customerID, paymentMethodID string) error {
	a.logger.Debug("Setting default payment method",
		zap.String("customer_id", customerID),
		zap.String("payment_method_id", paymentMethodID))

	_, err := customer.Update(customerID, &stripe.CustomerParams{
		InvoiceSettings: &stripe.CustomerInvoiceSettingsParams{
			DefaultPaymentMethod: stripe.String(paymentMethodID),
		},
	})
	if err != nil {
		a.logger.Error("Failed to set default payment method",
			zap.String("customer_id", customerID),
			zap.Error(err))
		return fmt.Errorf("stripe: failed to set default payment method: %w", err)
	}

	return nil
}

// CreateSubscription creates a new subscription in Stripe. The user ID is
// written into subscription metadata so webhook events can be mapped back
// to the application user.
func (a *StripeAdapter) CreateSubscription(ctx context.Context, input CreateSubscriptionInput) (*CreateSubscriptionOutput, error) {
	a.logger.Debug("Creating Stripe subscription",
		zap.String("user_id", input.UserID),
		zap.String("customer_id", input.CustomerID),
		zap.String("price_id", input.PriceID))

	params := &stripe.SubscriptionParams{
		Customer: stripe.String(input.CustomerID),
		Items: []*stripe.SubscriptionItemsParams{
			{
				Price: stripe.String(input.PriceID),
			},
		},
	}
	params.Metadata = map[string]string{
		MetadataUserIDKey: input.UserID,
	}
	params.AddExpand("latest_invoice.payment_intent")

	sub, err := subscription.New(params)
	if err != nil {
		a.logger.Error("Failed to create Stripe subscription",
			zap.String("user_id", input.UserID),
			zap.String("customer_id", input.CustomerID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create subscription: %w", err)
	}

	a.logger.Info("Created Stripe subscription",
		zap.String("user_id", input.UserID),
		zap.String("subscription_id", sub.ID),
		zap.String("status", string(sub.Status)))

	output := &CreateSubscriptionOutput{
		SubscriptionID:   sub.ID,
		Status:           string(sub.Status),
		CurrentPeriodEnd: time.Unix(sub.CurrentPeriodEnd, 0),
	}
	if sub.Customer != nil {
		output.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		output.PriceID = sub.Items.Data[0].Price.ID
	}
	if sub.LatestInvoice != nil {
		output.LatestInvoiceID = sub.LatestInvoice.ID
		if sub.LatestInvoice.PaymentIntent != nil {
			output.ClientSecret = sub.LatestInvoice.PaymentIntent.ClientSecret
		}
	}

	return output, nil
}

// RetrievePaymentMethod reads a payment method and its billing details
func (a *StripeAdapter) RetrievePaymentMethod(ctx context.Context, paymentMethodID string) (*PaymentMethodOutput, error) {
	a.logger.Debug("Retrieving payment method", zap.String("payment_method_id", paymentMethodID))

	pm, err := paymentmethod.Get(paymentMethodID, nil)
	if err != nil {
		a.logger.Error("Failed to retrieve payment method",
			zap.String("payment_method_id", paymentMethodID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to retrieve payment method: %w", err)
	}

	output := &PaymentMethodOutput{
		PaymentMethodID: pm.ID,
	}
	if pm.BillingDetails != nil {
		output.BillingDetails = billing.BillingDetails{
			Name:  pm.BillingDetails.Name,
			Email: pm.BillingDetails.Email,
			Phone: pm.BillingDetails.Phone,
		}
		if pm.BillingDetails.Address != nil {
			output.BillingDetails.Line1 = pm.BillingDetails.Address.Line1
			output.BillingDetails.Line2 = pm.BillingDetails.Address.Line2
			output.BillingDetails.City = pm.BillingDetails.Address.City
			output.BillingDetails.State = pm.BillingDetails.Address.State
			output.BillingDetails.PostalCode = pm.BillingDetails.Address.PostalCode
			output.BillingDetails.Country = pm.BillingDetails.Address.Country
		}
	}
	if pm.Card != nil {
		output.CardBrand = string(pm.Card.Brand)
		output.CardLast4 = pm.Card.Last4
	}

	return output, nil
}

// CreateCheckoutSession creates a hosted payment session: subscription mode
// when a recurring price ID is given, otherwise a one-off payment session
// built from ad-hoc line items. Amounts are taken from the request as-is.
func (a *StripeAdapter) CreateCheckoutSession(ctx context.Context, input CreateCheckoutSessionInput) (*CreateCheckoutSessionOutput, error) {
	a.logger.Debug("Creating checkout session",
		zap.String("user_id", input.UserID),
		zap.String("price_id", input.PriceID),
		zap.Int("item_count", len(input.Items)))

	mode := stripe.CheckoutSessionModePayment
	var lineItems []*stripe.CheckoutSessionLineItemParams
	if input.PriceID != "" {
		mode = stripe.CheckoutSessionModeSubscription
		lineItems = []*stripe.CheckoutSessionLineItemParams{{
			Price:    stripe.String(input.PriceID),
			Quantity: stripe.Int64(1),
		}}
	} else {
		lineItems = make([]*stripe.CheckoutSessionLineItemParams, len(input.Items))
		for i, item := range input.Items {
			lineItems[i] = &stripe.CheckoutSessionLineItemParams{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String("usd"),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(item.Name),
					},
					UnitAmount: stripe.Int64(item.UnitAmount),
				},
				Quantity: stripe.Int64(item.Quantity),
			}
		}
	}

	successURL := input.SuccessURL
	if successURL == "" {
		successURL = a.config.SuccessURL
	}
	cancelURL := input.CancelURL
	if cancelURL == "" {
		cancelURL = a.config.CancelURL
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(mode)),
		LineItems:         lineItems,
		SuccessURL:        stripe.String(successURL),
		CancelURL:         stripe.String(cancelURL),
		ClientReferenceID: stripe.String(input.UserID),
	}
	if input.Email != "" {
		params.CustomerEmail = stripe.String(input.Email)
	}

	sess, err := session.New(params)
	if err != nil {
		a.logger.Error("Failed to create checkout session",
			zap.String("user_id", input.UserID),
			zap.Error(err))
		return nil, fmt.Errorf("stripe: failed to create checkout session: %w", err)
	}

	a.logger.Info("Created checkout session",
		zap.String("user_id", input.UserID),
		zap.String("session_id", sess.ID))

	return &CreateCheckoutSessionOutput{
		SessionID: sess.ID,
		URL:       sess.URL,
	}, nil
}

// ResolvePriceForProduct returns the first active recurring price for a
// product. Products are expected to carry exactly one active price.
func (a *StripeAdapter) ResolvePriceForProduct(ctx context.Context, productID string) (string, error) {
	a.logger.Debug("Resolving price for product", zap.String("product_id", productID))

	params := &stripe.PriceListParams{
		Product: stripe.String(productID),
		Active:  stripe.Bool(true),
	}
	params.Limit = stripe.Int64(1)

	iter := price.List(params)
	for iter.Next() {
		p := iter.Price()
		a.logger.Debug("Resolved price",
			zap.String("product_id", productID),
			zap.String("price_id", p.ID))
		return p.ID, nil
	}
	if err := iter.Err(); err != nil {
		a.logger.Error("Failed to list prices",
			zap.String("product_id", productID),
			zap.Error(err))
		return "", fmt.Errorf("stripe: failed to list prices: %w", err)
	}

	return "", fmt.Errorf("stripe: no active price for product %s", productID)
}
