package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntentIDFromClientSecret(t *testing.T) {
	tests := []struct {
		name        string
		secret      string
		expected    string
		expectError bool
	}{
		{name: "Valid secret", secret: "pi_3Nabc_secret_XYZ", expected: "pi_3Nabc"},
		{name: "Missing marker", secret: "pi_3Nabc", expectError: true},
		{name: "Empty id", secret: "_secret_XYZ", expectError: true},
		{name: "Empty", secret: "", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := IntentIDFromClientSecret(tt.secret)
			if tt.expectError {
				assert.ErrorIs(t, err, ErrMalformedClientSecret)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, id)
		})
	}
}

func TestCheckoutMetadata(t *testing.T) {
	guest := CheckoutMetadata(`{"7":1}`, false, "")
	assert.Equal(t, map[string]string{"bag": `{"7":1}`, "save_info": "false"}, guest)

	member := CheckoutMetadata(`{"7":1}`, true, "ada")
	assert.Equal(t, "ada", member["username"])
	assert.Equal(t, "true", member["save_info"])
}

func TestPaymentIntent_Accessors(t *testing.T) {
	pi := &PaymentIntent{
		Metadata: map[string]string{"bag": `{"1":2}`, "save_info": "on", "username": "ada"},
		Shipping: Shipping{
			Name:  "Ada Lovelace",
			Phone: "0123",
			Address: Address{
				Line1:      "12 Analytical Row",
				City:       "London",
				PostalCode: "N1 9GU",
				Country:    "GB",
			},
		},
		ReceiptEmail: "receipt@example.com",
	}

	assert.Equal(t, `{"1":2}`, pi.Bag())
	assert.False(t, pi.SaveInfo(), "only boolean values enable save_info")
	assert.Equal(t, "ada", pi.Username())

	contact := pi.Contact(BillingDetails{Email: "ada@example.com"})
	assert.Equal(t, "Ada Lovelace", contact.FullName)
	assert.Equal(t, "ada@example.com", contact.Email)
	require.NotNil(t, contact.Postcode)
	assert.Equal(t, "N1 9GU", *contact.Postcode)
	assert.Nil(t, contact.StreetAddress2)
	assert.Nil(t, contact.County)

	fallback := pi.Contact(BillingDetails{})
	assert.Equal(t, "receipt@example.com", fallback.Email)
}
