package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/charge"
	"github.com/stripe/stripe-go/v82/paymentintent"
	"github.com/stripe/stripe-go/v82/webhook"
)

// Stripe implements Intents and Events against the Stripe API.
type Stripe struct {
	intents       paymentintent.Client
	charges       charge.Client
	webhookSecret string
	logger        zerolog.Logger
}

// NewStripe creates a Stripe client. A nil backend uses the default API backend.
func NewStripe(secretKey, webhookSecret string, backend stripe.Backend, logger zerolog.Logger) *Stripe {
	if backend == nil {
		backend = stripe.GetBackend(stripe.APIBackend)
	}
	return &Stripe{
		intents:       paymentintent.Client{B: backend, Key: secretKey},
		charges:       charge.Client{B: backend, Key: secretKey},
		webhookSecret: webhookSecret,
		logger:        logger.With().Str("component", "stripe").Logger(),
	}
}

// CreateIntent creates a payment intent for amount minor units.
func (s *Stripe) CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amount),
		Currency: stripe.String(currency),
	}
	params.Context = ctx

	pi, err := s.intents.New(params)
	if err != nil {
		s.logger.Error().Err(err).Int64("amount", amount).Msg("failed to create payment intent")
		return nil, fmt.Errorf("failed to create payment intent: %w", err)
	}

	return &Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       pi.Amount,
		Currency:     string(pi.Currency),
	}, nil
}

// UpdateMetadata merges metadata into the intent.
func (s *Stripe) UpdateMetadata(ctx context.Context, intentID string, metadata map[string]string) error {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx
	for key, value := range metadata {
		params.AddMetadata(key, value)
	}

	if _, err := s.intents.Update(intentID, params); err != nil {
		s.logger.Error().Err(err).Str("stripe_pid", intentID).Msg("failed to update payment intent metadata")
		return fmt.Errorf("failed to update payment intent: %w", err)
	}
	return nil
}

// Charge retrieves a charge with its billing details.
func (s *Stripe) Charge(ctx context.Context, chargeID string) (*Charge, error) {
	params := &stripe.ChargeParams{}
	params.Context = ctx

	ch, err := s.charges.Get(chargeID, params)
	if err != nil {
		s.logger.Error().Err(err).Str("charge_id", chargeID).Msg("failed to retrieve charge")
		return nil, fmt.Errorf("failed to retrieve charge: %w", err)
	}

	out := &Charge{ID: ch.ID, Amount: ch.Amount}
	if bd := ch.BillingDetails; bd != nil {
		out.BillingDetails = BillingDetails{Name: bd.Name, Email: bd.Email, Phone: bd.Phone}
		if a := bd.Address; a != nil {
			out.BillingDetails.Address = Address{
				Line1:      a.Line1,
				Line2:      a.Line2,
				City:       a.City,
				State:      a.State,
				PostalCode: a.PostalCode,
				Country:    a.Country,
			}
		}
	}
	return out, nil
}

// ParseEvent verifies the Stripe-Signature header and decodes the event.
func (s *Stripe) ParseEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to verify webhook: %w", err)
	}

	out := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil || (out.Type != EventPaymentSucceeded && out.Type != EventPaymentFailed) {
		return out, nil
	}

	intent, err := decodeIntent(event.Data.Raw)
	if err != nil {
		return nil, fmt.Errorf("failed to decode payment intent: %w", err)
	}
	out.Intent = intent
	return out, nil
}

type intentPayload struct {
	ID           string            `json:"id"`
	Amount       int64             `json:"amount"`
	Metadata     map[string]string `json:"metadata"`
	ReceiptEmail string            `json:"receipt_email"`
	Shipping     *Shipping         `json:"shipping"`
	LatestCharge json.RawMessage   `json:"latest_charge"`
}

type chargePayload struct {
	ID             string          `json:"id"`
	Amount         int64           `json:"amount"`
	BillingDetails *BillingDetails `json:"billing_details"`
}

func decodeIntent(raw json.RawMessage) (*PaymentIntent, error) {
	var p intentPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	if p.ID == "" {
		return nil, fmt.Errorf("payment intent without id")
	}

	pi := &PaymentIntent{
		ID:           p.ID,
		Amount:       p.Amount,
		Metadata:     p.Metadata,
		ReceiptEmail: p.ReceiptEmail,
	}
	if pi.Metadata == nil {
		pi.Metadata = map[string]string{}
	}
	if p.Shipping != nil {
		pi.Shipping = *p.Shipping
	}

	// latest_charge is either an id or the expanded charge object.
	if len(p.LatestCharge) > 0 && string(p.LatestCharge) != "null" {
		var id string
		if err := json.Unmarshal(p.LatestCharge, &id); err == nil {
			pi.LatestChargeID = id
		} else {
			var ch chargePayload
			if err := json.Unmarshal(p.LatestCharge, &ch); err != nil {
				return nil, fmt.Errorf("invalid latest_charge: %w", err)
			}
			pi.LatestChargeID = ch.ID
			pi.LatestCharge = &Charge{ID: ch.ID, Amount: ch.Amount}
			if ch.BillingDetails != nil {
				pi.LatestCharge.BillingDetails = *ch.BillingDetails
			}
		}
	}
	return pi, nil
}
