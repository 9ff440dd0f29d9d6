package model

import "time"

// UserProfile stores a user's default delivery information and order history link.
type UserProfile struct {
	ID                    int64     `json:"-" db:"id"`
	Username              string    `json:"username" db:"username"`
	DefaultPhoneNumber    *string   `json:"defaultPhoneNumber,omitempty" db:"default_phone_number"`
	DefaultStreetAddress1 *string   `json:"defaultStreetAddress1,omitempty" db:"default_street_address1"`
	DefaultStreetAddress2 *string   `json:"defaultStreetAddress2,omitempty" db:"default_street_address2"`
	DefaultTownOrCity     *string   `json:"defaultTownOrCity,omitempty" db:"default_town_or_city"`
	DefaultCounty         *string   `json:"defaultCounty,omitempty" db:"default_county"`
	DefaultPostcode       *string   `json:"defaultPostcode,omitempty" db:"default_postcode"`
	DefaultCountry        *string   `json:"defaultCountry,omitempty" db:"default_country"`
	CreatedAt             time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt             time.Time `json:"updatedAt" db:"updated_at"`
}

// ProfileRequest is the payload for updating profile defaults.
type ProfileRequest struct {
	DefaultPhoneNumber    string `json:"default_phone_number"`
	DefaultStreetAddress1 string `json:"default_street_address1"`
	DefaultStreetAddress2 string `json:"default_street_address2"`
	DefaultTownOrCity     string `json:"default_town_or_city"`
	DefaultCounty         string `json:"default_county"`
	DefaultPostcode       string `json:"default_postcode"`
	DefaultCountry        string `json:"default_country"`
}

// Validate checks field lengths and returns per-field errors.
func (r *ProfileRequest) Validate() error {
	fields := map[string]string{}
	maxLength(fields, "default_phone_number", r.DefaultPhoneNumber, 20)
	maxLength(fields, "default_street_address1", r.DefaultStreetAddress1, 80)
	maxLength(fields, "default_street_address2", r.DefaultStreetAddress2, 80)
	maxLength(fields, "default_town_or_city", r.DefaultTownOrCity, 40)
	maxLength(fields, "default_county", r.DefaultCounty, 80)
	maxLength(fields, "default_postcode", r.DefaultPostcode, 20)
	maxLength(fields, "default_country", r.DefaultCountry, 40)
	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// ApplyTo copies the request onto a profile, storing blanks as unset.
func (r *ProfileRequest) ApplyTo(p *UserProfile) {
	p.DefaultPhoneNumber = optional(r.DefaultPhoneNumber)
	p.DefaultStreetAddress1 = optional(r.DefaultStreetAddress1)
	p.DefaultStreetAddress2 = optional(r.DefaultStreetAddress2)
	p.DefaultTownOrCity = optional(r.DefaultTownOrCity)
	p.DefaultCounty = optional(r.DefaultCounty)
	p.DefaultPostcode = optional(r.DefaultPostcode)
	p.DefaultCountry = optional(r.DefaultCountry)
}

// SaveDefaults stores an order's delivery details as the profile defaults.
func (p *UserProfile) SaveDefaults(c ContactDetails) {
	p.DefaultPhoneNumber = optional(c.PhoneNumber)
	p.DefaultCountry = optional(c.Country)
	p.DefaultPostcode = c.Postcode
	p.DefaultTownOrCity = optional(c.TownOrCity)
	p.DefaultStreetAddress1 = optional(c.StreetAddress1)
	p.DefaultStreetAddress2 = c.StreetAddress2
	p.DefaultCounty = c.County
}

// CheckoutForm returns a checkout form pre-filled from the profile defaults.
func (p *UserProfile) CheckoutForm(fullName, email string) CheckoutForm {
	return CheckoutForm{
		FullName:       fullName,
		Email:          email,
		PhoneNumber:    deref(p.DefaultPhoneNumber),
		StreetAddress1: deref(p.DefaultStreetAddress1),
		StreetAddress2: deref(p.DefaultStreetAddress2),
		TownOrCity:     deref(p.DefaultTownOrCity),
		Postcode:       deref(p.DefaultPostcode),
		Country:        deref(p.DefaultCountry),
		County:         deref(p.DefaultCounty),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
