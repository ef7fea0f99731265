package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v84"
)

// Intent is the subset of the provider's payment intent the checkout flow
// needs: the client secret handed to the confirmation SDK plus the intent id
// the order draft and later the webhook are keyed by.
type Intent struct {
	IntentID     string `json:"payment_intent_id"`
	ClientSecret string `json:"client_secret"`
	Livemode     bool   `json:"livemode"`
}

// CreateIntent creates a provider-side payment intent for the rounded integer
// amount in the currency's minor units (whole yen for JPY).
func (c *Client) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*Intent, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	if amount <= 0 {
		return nil, errors.New("intent amount must be positive")
	}
	if currency == "" {
		currency = string(stripe.CurrencyJPY)
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	if len(metadata) > 0 {
		params.Metadata = metadata
	}

	intent, err := c.api.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return nil, err
	}

	return &Intent{
		IntentID:     intent.ID,
		ClientSecret: intent.ClientSecret,
		Livemode:     intent.Livemode,
	}, nil
}
