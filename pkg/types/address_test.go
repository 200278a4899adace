package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAddressMergedIntoFillsOmittedFields(t *testing.T) {
	base := Address{
		FirstName:  "Ada",
		Line1:      "1 Main St",
		City:       "Springfield",
		State:      "IL",
		PostalCode: "62701",
		Country:    "US",
	}
	update := Address{Line1: "22 Oak Ave", PostalCode: "62702"}

	merged := update.MergedInto(base)

	assert.Equal(t, "22 Oak Ave", merged.Line1)
	assert.Equal(t, "62702", merged.PostalCode)
	assert.Equal(t, "Ada", merged.FirstName)
	assert.Equal(t, "Springfield", merged.City)
	assert.Equal(t, "US", merged.Country)
}

func TestAddressMergedIntoEmptyUpdateKeepsBase(t *testing.T) {
	base := Address{Line1: "1 Main St", Country: "US"}
	assert.Equal(t, base, Address{}.MergedInto(base))
}

func TestAddressIsZero(t *testing.T) {
	assert.True(t, Address{}.IsZero())
	assert.False(t, Address{City: "Springfield"}.IsZero())
}
