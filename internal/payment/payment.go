// Package payment is the boundary to the card payment provider: charge intents,
// intent metadata and signed webhook events.
package payment

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"storefront/internal/model"
)

// Event types the storefront reacts to.
const (
	EventPaymentSucceeded = "payment_intent.succeeded"
	EventPaymentFailed    = "payment_intent.payment_failed"
)

// Metadata keys written onto a payment intent before confirmation.
const (
	MetadataBag      = "bag"
	MetadataSaveInfo = "save_info"
	MetadataUsername = "username"
)

// ErrMalformedClientSecret is returned for a client secret that does not embed an intent id.
var ErrMalformedClientSecret = errors.New("malformed client secret")

// Intent is a created charge intent.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       int64
	Currency     string
}

// Intents creates charge intents and annotates them.
type Intents interface {
	CreateIntent(ctx context.Context, amount int64, currency string) (*Intent, error)
	UpdateMetadata(ctx context.Context, intentID string, metadata map[string]string) error
}

// Events verifies webhook deliveries and resolves the charges they refer to.
type Events interface {
	// ParseEvent verifies the signature header and decodes the event.
	ParseEvent(payload []byte, signature string) (*Event, error)
	// Charge retrieves a charge with its billing details.
	Charge(ctx context.Context, chargeID string) (*Charge, error)
}

// Event is a verified webhook event.
type Event struct {
	ID     string
	Type   string
	Intent *PaymentIntent
}

// Address is a postal address as the provider reports it.
type Address struct {
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

// Shipping holds the delivery recipient of a payment.
type Shipping struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

// BillingDetails holds the card holder's contact data.
type BillingDetails struct {
	Name    string  `json:"name"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	Address Address `json:"address"`
}

// Charge is a settled charge of an intent.
type Charge struct {
	ID             string
	Amount         int64
	BillingDetails BillingDetails
}

// PaymentIntent is the intent carried by a webhook event.
type PaymentIntent struct {
	ID             string
	Amount         int64
	Metadata       map[string]string
	Shipping       Shipping
	ReceiptEmail   string
	LatestChargeID string
	// LatestCharge is set when the event embeds the charge object.
	LatestCharge *Charge
}

// Bag returns the bag snapshot recorded in the metadata.
func (pi *PaymentIntent) Bag() string {
	return pi.Metadata[MetadataBag]
}

// SaveInfo reports whether the customer asked to store the delivery details.
func (pi *PaymentIntent) SaveInfo() bool {
	v, err := strconv.ParseBool(pi.Metadata[MetadataSaveInfo])
	return err == nil && v
}

// Username returns the authenticated user that paid, or "" for a guest.
func (pi *PaymentIntent) Username() string {
	return pi.Metadata[MetadataUsername]
}

// Contact maps the shipping details and billing email onto order contact fields.
func (pi *PaymentIntent) Contact(billing BillingDetails) model.ContactDetails {
	email := billing.Email
	if email == "" {
		email = pi.ReceiptEmail
	}
	addr := pi.Shipping.Address
	c := model.ContactDetails{
		FullName:       pi.Shipping.Name,
		Email:          email,
		PhoneNumber:    pi.Shipping.Phone,
		Country:        addr.Country,
		Postcode:       &addr.PostalCode,
		TownOrCity:     addr.City,
		StreetAddress1: addr.Line1,
		StreetAddress2: &addr.Line2,
		County:         &addr.State,
	}
	c.NormaliseOptional()
	return c
}

// CheckoutMetadata builds the metadata written onto an intent before the card is confirmed.
// The username key is only present for authenticated customers.
func CheckoutMetadata(bagSnapshot string, saveInfo bool, username string) map[string]string {
	metadata := map[string]string{
		MetadataBag:      bagSnapshot,
		MetadataSaveInfo: strconv.FormatBool(saveInfo),
	}
	if username != "" {
		metadata[MetadataUsername] = username
	}
	return metadata
}

// IntentIDFromClientSecret extracts the intent id from a client secret
// of the form "<intent id>_secret_<token>".
func IntentIDFromClientSecret(clientSecret string) (string, error) {
	id, _, found := strings.Cut(clientSecret, "_secret")
	if !found || id == "" {
		return "", ErrMalformedClientSecret
	}
	return id, nil
}
