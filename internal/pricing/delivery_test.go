package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testRule(t *testing.T) DeliveryRule {
	rule, err := NewDeliveryRule("50.00", "10")
	require.NoError(t, err)
	return rule
}

func TestDeliveryRule_Apply(t *testing.T) {
	rule := testRule(t)

	tests := []struct {
		name          string
		subtotal      string
		expectedFee   string
		expectedGrand string
		expectedDelta string
	}{
		{
			name:          "Threshold met exactly",
			subtotal:      "50.00",
			expectedFee:   "0",
			expectedGrand: "50.00",
			expectedDelta: "0",
		},
		{
			name:          "Below threshold",
			subtotal:      "25.00",
			expectedFee:   "2.50",
			expectedGrand: "27.50",
			expectedDelta: "25.00",
		},
		{
			name:          "Above threshold",
			subtotal:      "120.99",
			expectedFee:   "0",
			expectedGrand: "120.99",
			expectedDelta: "0",
		},
		{
			name:          "Empty bag",
			subtotal:      "0",
			expectedFee:   "0",
			expectedGrand: "0",
			expectedDelta: "50.00",
		},
		{
			name:          "Fee rounded to the cent",
			subtotal:      "19.99",
			expectedFee:   "2.00",
			expectedGrand: "21.99",
			expectedDelta: "30.01",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			totals := rule.Apply(d(tt.subtotal))

			assert.True(t, d(tt.expectedFee).Equal(totals.Delivery), "delivery %s", totals.Delivery)
			assert.True(t, d(tt.expectedGrand).Equal(totals.GrandTotal), "grand total %s", totals.GrandTotal)
			assert.True(t, d(tt.expectedDelta).Equal(totals.FreeDeliveryDelta), "delta %s", totals.FreeDeliveryDelta)
			assert.True(t, totals.Subtotal.Add(totals.Delivery).Equal(totals.GrandTotal))
		})
	}
}

func TestDeliveryRule_FeeIsZeroOnlyAtThreshold(t *testing.T) {
	rule := testRule(t)

	for cents := int64(100); cents <= 10000; cents += 37 {
		subtotal := FromMinorUnits(cents)
		fee := rule.Fee(subtotal)
		if subtotal.GreaterThanOrEqual(rule.FreeDeliveryThreshold) {
			assert.True(t, fee.IsZero(), "subtotal %s", subtotal)
		} else {
			assert.True(t, fee.IsPositive(), "subtotal %s", subtotal)
		}
	}
}

func TestNewDeliveryRule_Invalid(t *testing.T) {
	tests := []struct {
		name       string
		threshold  string
		percentage string
		errorMsg   string
	}{
		{name: "Bad threshold", threshold: "fifty", percentage: "10", errorMsg: "invalid free delivery threshold"},
		{name: "Bad percentage", threshold: "50", percentage: "ten", errorMsg: "invalid standard delivery percentage"},
		{name: "Negative threshold", threshold: "-1", percentage: "10", errorMsg: "cannot be negative"},
		{name: "Negative percentage", threshold: "50", percentage: "-10", errorMsg: "cannot be negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewDeliveryRule(tt.threshold, tt.percentage)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLineTotal(t *testing.T) {
	assert.True(t, d("50.00").Equal(LineTotal(d("25.00"), 2)))
	assert.True(t, d("0").Equal(LineTotal(d("25.00"), 0)))
	assert.True(t, d("29.97").Equal(LineTotal(d("9.99"), 3)))
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int64(2750), ToMinorUnits(d("27.50")))
	assert.Equal(t, int64(5000), ToMinorUnits(d("50")))
	assert.Equal(t, int64(1), ToMinorUnits(d("0.005")))
	assert.True(t, d("27.50").Equal(FromMinorUnits(2750)))
}
