package order

import (
	"regexp"
	"strings"
)

// Checkout field rules. Name and city accept letters in any script; the phone
// pattern matches Egyptian mobile numbers with an optional +20 prefix.
var (
	emailRe  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]{2,}$`)
	nameRe   = regexp.MustCompile(`^[\p{L}\s]{2,60}$`)
	cityRe   = regexp.MustCompile(`^[\p{L}\s]{2,40}$`)
	postalRe = regexp.MustCompile(`^[A-Za-z0-9\-\s]{3,10}$`)
	phoneRe  = regexp.MustCompile(`^(\+?20)?01[0-25]\d{8}$`)
)

const minAddressLen = 8

// validateShipping checks the shipping snapshot and optional contact email.
// All fields are trimmed before matching; the first violation is returned as
// a ValidationError. No state is mutated on failure.
func validateShipping(s ShippingDetails, contactEmail string) error {
	if contactEmail != "" && !emailRe.MatchString(strings.TrimSpace(contactEmail)) {
		return &ValidationError{Field: "email", Reason: "enter a valid email address"}
	}
	if !nameRe.MatchString(strings.TrimSpace(s.Name)) {
		return &ValidationError{Field: "name", Reason: "name should be 2-60 letters"}
	}
	if len(strings.TrimSpace(s.Address)) < minAddressLen {
		return &ValidationError{Field: "address", Reason: "address should be at least 8 characters"}
	}
	if !cityRe.MatchString(strings.TrimSpace(s.City)) {
		return &ValidationError{Field: "city", Reason: "city should be 2-40 letters"}
	}
	if pc := strings.TrimSpace(s.PostalCode); pc != "" && !postalRe.MatchString(pc) {
		return &ValidationError{Field: "postalCode", Reason: "enter a valid postal code (3-10 chars)"}
	}
	if !phoneRe.MatchString(strings.TrimSpace(s.Phone)) {
		return &ValidationError{Field: "phone", Reason: "enter a valid Egyptian phone (e.g. 01X########)"}
	}
	return nil
}
