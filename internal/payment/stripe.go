package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"github.com/safar/go-storefront/internal/models"
)

var ErrNothingToCharge = errors.New("order total must be positive")

// Intent is what the browser needs to confirm a payment.
type Intent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

type Provider interface {
	CreateIntent(ctx context.Context, order *models.Order) (*Intent, error)
}

type intentCreator interface {
	New(params *stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

type Stripe struct {
	intents  intentCreator
	currency string
}

func NewStripe(secretKey, currency string) *Stripe {
	sc := &client.API{}
	sc.Init(secretKey, nil)

	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}

	return &Stripe{
		intents:  sc.PaymentIntents,
		currency: strings.ToLower(currency),
	}
}

// MinorUnits converts a two-decimal amount to the integer cents Stripe expects.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (s *Stripe) CreateIntent(ctx context.Context, order *models.Order) (*Intent, error) {
	amount := MinorUnits(order.Total)
	if amount <= 0 {
		return nil, ErrNothingToCharge
	}

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", strconv.FormatInt(order.ID, 10))
	params.AddMetadata("user_id", strconv.FormatInt(order.UserID, 10))
	params.SetIdempotencyKey(fmt.Sprintf("order-%d-%d", order.ID, amount))

	pi, err := s.intents.New(params)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	return &Intent{ID: pi.ID, ClientSecret: pi.ClientSecret}, nil
}
