package types

import "strings"

// Address is the canonical shipping destination stored on an order. It is
// persisted as jsonb; both wire dialects map onto it in their presenters.
type Address struct {
	FirstName  string `json:"first_name,omitempty"`
	LastName   string `json:"last_name,omitempty"`
	Line1      string `json:"line1,omitempty"`
	Line2      string `json:"line2,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"postal_code,omitempty"`
	Country    string `json:"country,omitempty"`
	Phone      string `json:"phone,omitempty"`
}

// IsZero reports whether no field is populated.
func (a Address) IsZero() bool {
	return a == Address{}
}

// HasCountry reports whether the address carries at least a country code,
// the minimum needed to quote shipping.
func (a Address) HasCountry() bool {
	return strings.TrimSpace(a.Country) != ""
}

// MergedInto overlays the provided (non-empty) fields of a onto base. Address
// updates fill in only what the caller sent and keep previously stored values
// for omitted sub-fields.
func (a Address) MergedInto(base Address) Address {
	merged := base
	if a.FirstName != "" {
		merged.FirstName = a.FirstName
	}
	if a.LastName != "" {
		merged.LastName = a.LastName
	}
	if a.Line1 != "" {
		merged.Line1 = a.Line1
	}
	if a.Line2 != "" {
		merged.Line2 = a.Line2
	}
	if a.City != "" {
		merged.City = a.City
	}
	if a.State != "" {
		merged.State = a.State
	}
	if a.PostalCode != "" {
		merged.PostalCode = a.PostalCode
	}
	if a.Country != "" {
		merged.Country = a.Country
	}
	if a.Phone != "" {
		merged.Phone = a.Phone
	}
	return merged
}
