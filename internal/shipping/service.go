package shipping

import (
	"fmt"
	"strings"

	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

// Option is one quoted shipping rate. IDs are derived from the method and
// its cost in cents (e.g. flat_500) so the same rate always quotes the same
// id across calls.
type Option struct {
	ID        string
	Title     string
	CostCents int
}

// Service quotes shipping options for a destination and cart subtotal.
type Service interface {
	Quote(dest *types.Address, subtotalCents int) []Option
	FindOption(dest *types.Address, subtotalCents int, optionID string) (*Option, bool)
}

type service struct {
	cfg config.ShippingConfig
}

// NewService builds a shipping service from the configured rate set.
func NewService(cfg config.ShippingConfig) Service {
	return &service{cfg: cfg}
}

// Quote returns the available options for the destination. An unset or
// country-less destination yields an empty list, never an error.
func (s *service) Quote(dest *types.Address, subtotalCents int) []Option {
	if dest == nil || !dest.HasCountry() {
		return []Option{}
	}

	surcharge := 0
	if !strings.EqualFold(strings.TrimSpace(dest.Country), strings.TrimSpace(s.cfg.DomesticCountry)) {
		surcharge = s.cfg.InternationalSurcharge
	}

	flat := s.cfg.FlatRateCents + surcharge
	expedited := s.cfg.ExpeditedRateCents + surcharge

	options := []Option{}
	if s.cfg.FreeOverSubtotalCents > 0 && subtotalCents >= s.cfg.FreeOverSubtotalCents {
		options = append(options, Option{ID: "free_0", Title: "Free Shipping", CostCents: 0})
	}
	options = append(options,
		Option{ID: fmt.Sprintf("flat_%d", flat), Title: "Standard Shipping", CostCents: flat},
		Option{ID: fmt.Sprintf("expedited_%d", expedited), Title: "Expedited Shipping", CostCents: expedited},
	)
	return options
}

// FindOption re-quotes for the destination and returns the option matching
// the given id, so a stale selection from a changed destination is rejected.
func (s *service) FindOption(dest *types.Address, subtotalCents int, optionID string) (*Option, bool) {
	for _, option := range s.Quote(dest, subtotalCents) {
		if option.ID == optionID {
			match := option
			return &match, true
		}
	}
	return nil, false
}
