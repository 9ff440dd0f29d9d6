package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/pricing"
)

func TestNewOrderNumber(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		assert.Len(t, n, 32)
		assert.Regexp(t, `^[0-9A-F]{32}$`, n)
		assert.False(t, seen[n], "order numbers must not repeat")
		seen[n] = true
	}
}

func TestOrder_ApplyTotals(t *testing.T) {
	rule, err := pricing.NewDeliveryRule("50", "10")
	require.NoError(t, err)

	var order Order
	order.ApplyTotals(decimal.RequireFromString("25.00"), rule)
	assert.Equal(t, "25", order.OrderTotal.String())
	assert.Equal(t, "2.5", order.DeliveryCost.String())
	assert.Equal(t, "27.5", order.GrandTotal.String())

	order.ApplyTotals(decimal.RequireFromString("75.00"), rule)
	assert.True(t, order.DeliveryCost.IsZero())
	assert.Equal(t, "75", order.GrandTotal.String())

	order.ApplyTotals(decimal.Zero, rule)
	assert.True(t, order.GrandTotal.IsZero())
}

func TestUserProfile_Defaults(t *testing.T) {
	postcode := "N1 9GU"
	profile := &UserProfile{Username: "ada"}

	profile.SaveDefaults(ContactDetails{
		FullName:       "Ada Lovelace",
		Email:          "ada@example.com",
		PhoneNumber:    "0123",
		Country:        "GB",
		Postcode:       &postcode,
		TownOrCity:     "London",
		StreetAddress1: "12 Analytical Row",
	})

	require.NotNil(t, profile.DefaultPhoneNumber)
	assert.Equal(t, "0123", *profile.DefaultPhoneNumber)
	assert.Nil(t, profile.DefaultCounty)

	form := profile.CheckoutForm("Ada Lovelace", "ada@example.com")
	assert.Equal(t, "N1 9GU", form.Postcode)
	assert.Equal(t, "", form.County)
	assert.NoError(t, form.Validate())
}

func TestProfileRequest(t *testing.T) {
	req := ProfileRequest{DefaultTownOrCity: "London", DefaultCounty: " "}
	require.NoError(t, req.Validate())

	var profile UserProfile
	req.ApplyTo(&profile)
	require.NotNil(t, profile.DefaultTownOrCity)
	assert.Equal(t, "London", *profile.DefaultTownOrCity)
	assert.Nil(t, profile.DefaultCounty)

	req.DefaultCountry = "The United Kingdom of Great Britain and Northern Ireland"
	assert.Error(t, req.Validate())
}
