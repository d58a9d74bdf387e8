package payments

import (
	"atacado-server/internal/observability"
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/paymentlink"
	"github.com/stripe/stripe-go/v79/price"
)

// Client creates Stripe payment links for order sets
type Client struct {
	logger *observability.Logger
}

// NewClient configures the Stripe SDK and returns a payments client
func NewClient(secretKey string, logger *observability.Logger) *Client {
	stripe.Key = secretKey
	return &Client{logger: logger}
}

// CreatePaymentLink creates a hosted payment link for the given amount.
// Amounts are in cents, BRL.
func (c *Client) CreatePaymentLink(ctx context.Context, description string, amountCents int64) (string, error) {
	ctx = observability.WithFields(ctx,
		observability.Field{Key: "amount_cents", Value: amountCents},
	)

	priceParams := &stripe.PriceParams{
		Currency:   stripe.String(string(stripe.CurrencyBRL)),
		UnitAmount: stripe.Int64(amountCents),
		ProductData: &stripe.PriceProductDataParams{
			Name: stripe.String(description),
		},
	}
	priceObj, err := price.New(priceParams)
	if err != nil {
		c.logger.Error(ctx, "failed to create stripe price", err)
		return "", fmt.Errorf("failed to create stripe price: %w", err)
	}

	linkParams := &stripe.PaymentLinkParams{
		LineItems: []*stripe.PaymentLinkLineItemParams{
			{
				Price:    stripe.String(priceObj.ID),
				Quantity: stripe.Int64(1),
			},
		},
	}
	link, err := paymentlink.New(linkParams)
	if err != nil {
		c.logger.Error(ctx, "failed to create stripe payment link", err)
		return "", fmt.Errorf("failed to create stripe payment link: %w", err)
	}

	c.logger.Info(ctx, "payment link created")
	return link.URL, nil
}
