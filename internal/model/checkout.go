package model

import (
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"unicode/utf8"
)

// CheckoutForm holds the contact and address fields submitted at checkout.
type CheckoutForm struct {
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	PhoneNumber    string `json:"phone_number"`
	StreetAddress1 string `json:"street_address1"`
	StreetAddress2 string `json:"street_address2"`
	TownOrCity     string `json:"town_or_city"`
	Postcode       string `json:"postcode"`
	Country        string `json:"country"`
	County         string `json:"county"`
}

// CheckoutRequest is the payload of a checkout form submit.
type CheckoutRequest struct {
	CheckoutForm
	ClientSecret string `json:"client_secret"`
	SaveInfo     bool   `json:"save_info"`
}

// CacheCheckoutRequest is sent by the payment page just before confirming the card payment.
type CacheCheckoutRequest struct {
	ClientSecret string `json:"client_secret"`
	SaveInfo     bool   `json:"save_info"`
}

// ValidationError carries per-field form errors.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return fmt.Sprintf("invalid form fields: %s", strings.Join(names, ", "))
}

// Validate checks required fields, lengths and the email address.
func (f *CheckoutForm) Validate() error {
	fields := map[string]string{}

	required(fields, "full_name", f.FullName, 50)
	required(fields, "email", f.Email, 254)
	required(fields, "phone_number", f.PhoneNumber, 20)
	required(fields, "street_address1", f.StreetAddress1, 80)
	maxLength(fields, "street_address2", f.StreetAddress2, 80)
	required(fields, "town_or_city", f.TownOrCity, 40)
	maxLength(fields, "postcode", f.Postcode, 20)
	required(fields, "country", f.Country, 40)
	maxLength(fields, "county", f.County, 80)

	if _, ok := fields["email"]; !ok {
		if addr, err := mail.ParseAddress(strings.TrimSpace(f.Email)); err != nil || addr.Address != strings.TrimSpace(f.Email) {
			fields["email"] = "Enter a valid email address."
		}
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// Contact converts the form into normalised contact details.
func (f *CheckoutForm) Contact() ContactDetails {
	return ContactDetails{
		FullName:       strings.TrimSpace(f.FullName),
		Email:          strings.TrimSpace(f.Email),
		PhoneNumber:    strings.TrimSpace(f.PhoneNumber),
		Country:        strings.TrimSpace(f.Country),
		Postcode:       optional(f.Postcode),
		TownOrCity:     strings.TrimSpace(f.TownOrCity),
		StreetAddress1: strings.TrimSpace(f.StreetAddress1),
		StreetAddress2: optional(f.StreetAddress2),
		County:         optional(f.County),
	}
}

// NormaliseOptional turns blank optional fields into nil.
func (c *ContactDetails) NormaliseOptional() {
	c.Postcode = optionalPtr(c.Postcode)
	c.StreetAddress2 = optionalPtr(c.StreetAddress2)
	c.County = optionalPtr(c.County)
}

func required(fields map[string]string, name, value string, max int) {
	if strings.TrimSpace(value) == "" {
		fields[name] = "This field is required."
		return
	}
	maxLength(fields, name, value, max)
}

func maxLength(fields map[string]string, name, value string, max int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > max {
		fields[name] = fmt.Sprintf("Ensure this value has at most %d characters.", max)
	}
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

func optionalPtr(s *string) *string {
	if s == nil {
		return nil
	}
	return optional(*s)
}
