package shipping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

func testShippingConfig() config.ShippingConfig {
	return config.ShippingConfig{
		FlatRateCents:          500,
		ExpeditedRateCents:     1500,
		FreeOverSubtotalCents:  5000,
		DomesticCountry:        "US",
		InternationalSurcharge: 1000,
	}
}

func TestQuoteRequiresDestinationCountry(t *testing.T) {
	svc := NewService(testShippingConfig())

	assert.Empty(t, svc.Quote(nil, 3000))
	assert.Empty(t, svc.Quote(&types.Address{City: "Portland"}, 3000))
}

func TestQuoteDomesticRates(t *testing.T) {
	svc := NewService(testShippingConfig())

	options := svc.Quote(&types.Address{Country: "US"}, 3000)
	require.Len(t, options, 2)
	assert.Equal(t, "flat_500", options[0].ID)
	assert.Equal(t, 500, options[0].CostCents)
	assert.Equal(t, "expedited_1500", options[1].ID)
	assert.Equal(t, 1500, options[1].CostCents)
}

func TestQuoteFreeShippingOverThreshold(t *testing.T) {
	svc := NewService(testShippingConfig())

	options := svc.Quote(&types.Address{Country: "us"}, 5000)
	require.Len(t, options, 3)
	assert.Equal(t, "free_0", options[0].ID)
	assert.Equal(t, 0, options[0].CostCents)
}

func TestQuoteInternationalSurcharge(t *testing.T) {
	svc := NewService(testShippingConfig())

	options := svc.Quote(&types.Address{Country: "CA"}, 3000)
	require.Len(t, options, 2)
	assert.Equal(t, "flat_1500", options[0].ID)
	assert.Equal(t, 1500, options[0].CostCents)
	assert.Equal(t, "expedited_2500", options[1].ID)
	assert.Equal(t, 2500, options[1].CostCents)
}

func TestFindOptionRejectsStaleSelection(t *testing.T) {
	svc := NewService(testShippingConfig())
	domestic := &types.Address{Country: "US"}
	international := &types.Address{Country: "GB"}

	option, ok := svc.FindOption(domestic, 3000, "flat_500")
	require.True(t, ok)
	assert.Equal(t, 500, option.CostCents)

	// the domestic id no longer quotes once the destination changes
	_, ok = svc.FindOption(international, 3000, "flat_500")
	assert.False(t, ok)

	_, ok = svc.FindOption(domestic, 3000, "free_0")
	assert.False(t, ok)
}
