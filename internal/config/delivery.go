package config

import "storefront/internal/pricing"

// Rule parses the configured delivery settings.
func (c DeliveryConfig) Rule() (pricing.DeliveryRule, error) {
	return pricing.NewDeliveryRule(c.FreeDeliveryThreshold, c.StandardDeliveryPercentage)
}
