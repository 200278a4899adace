package enums

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUCPStatusFor(t *testing.T) {
	cases := []struct {
		native NativeOrderStatus
		want   UCPOrderStatus
	}{
		{NativeOrderStatusPending, UCPOrderStatusPending},
		{NativeOrderStatusOnHold, UCPOrderStatusPending},
		{NativeOrderStatusProcessing, UCPOrderStatusConfirmed},
		{NativeOrderStatusCompleted, UCPOrderStatusFulfilled},
		{NativeOrderStatusCancelled, UCPOrderStatusCancelled},
		{NativeOrderStatusFailed, UCPOrderStatusCancelled},
		{NativeOrderStatusRefunded, UCPOrderStatusRefunded},
		{NativeOrderStatusShipped, UCPOrderStatusShipped},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, UCPStatusFor(tc.native), "native %s", tc.native)
	}
}

func TestUCPStatusForUnknownNative(t *testing.T) {
	assert.Equal(t, UCPOrderStatusPending, UCPStatusFor(NativeOrderStatus("mystery")))
}

func TestCheckoutStatusTerminal(t *testing.T) {
	assert.False(t, CheckoutStatusIncomplete.IsTerminal())
	assert.False(t, CheckoutStatusReadyForComplete.IsTerminal())
	assert.True(t, CheckoutStatusCompleted.IsTerminal())
	assert.True(t, CheckoutStatusCanceled.IsTerminal())
	assert.True(t, CheckoutStatusRequiresEscalation.IsTerminal())
}

func TestCheckoutStatusLegacyValue(t *testing.T) {
	assert.Equal(t, "open", CheckoutStatusIncomplete.LegacyValue())
	assert.Equal(t, "open", CheckoutStatusReadyForComplete.LegacyValue())
	assert.Equal(t, "completed", CheckoutStatusCompleted.LegacyValue())
	assert.Equal(t, "cancelled", CheckoutStatusCanceled.LegacyValue())
	assert.Equal(t, "cancelled", CheckoutStatusRequiresEscalation.LegacyValue())
}

func TestParseCheckoutStatus(t *testing.T) {
	status, err := ParseCheckoutStatus("ready_for_complete")
	require.NoError(t, err)
	assert.Equal(t, CheckoutStatusReadyForComplete, status)

	_, err = ParseCheckoutStatus("paid")
	assert.Error(t, err)
}

func TestParseFulfillmentEventType(t *testing.T) {
	event, err := ParseFulfillmentEventType("shipped")
	require.NoError(t, err)
	assert.Equal(t, FulfillmentEventShipped, event)

	_, err = ParseFulfillmentEventType("teleported")
	assert.Error(t, err)
}

func TestParseWebhookEvent(t *testing.T) {
	event, err := ParseWebhookEvent("order_created")
	require.NoError(t, err)
	assert.Equal(t, WebhookEventOrderCreated, event)

	_, err = ParseWebhookEvent("order_deleted")
	assert.Error(t, err)
}
