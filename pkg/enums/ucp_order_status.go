package enums

// UCPOrderStatus is the UCP-standardized order status surfaced to agents.
// Never stored: always recomputed from the native status at read time so that
// out-of-band native changes (manual admin action) are reflected immediately.
type UCPOrderStatus string

const (
	UCPOrderStatusPending   UCPOrderStatus = "pending"
	UCPOrderStatusConfirmed UCPOrderStatus = "confirmed"
	UCPOrderStatusFulfilled UCPOrderStatus = "fulfilled"
	UCPOrderStatusCancelled UCPOrderStatus = "cancelled"
	UCPOrderStatusRefunded  UCPOrderStatus = "refunded"
	UCPOrderStatusShipped   UCPOrderStatus = "shipped"
)

var ucpStatusByNative = map[NativeOrderStatus]UCPOrderStatus{
	NativeOrderStatusPending:    UCPOrderStatusPending,
	NativeOrderStatusOnHold:     UCPOrderStatusPending,
	NativeOrderStatusProcessing: UCPOrderStatusConfirmed,
	NativeOrderStatusCompleted:  UCPOrderStatusFulfilled,
	NativeOrderStatusCancelled:  UCPOrderStatusCancelled,
	NativeOrderStatusFailed:     UCPOrderStatusCancelled,
	NativeOrderStatusRefunded:   UCPOrderStatusRefunded,
	NativeOrderStatusShipped:    UCPOrderStatusShipped,
}

// UCPStatusFor maps a native status onto the UCP vocabulary. The table is
// total: unmapped natives fall back to pending.
func UCPStatusFor(native NativeOrderStatus) UCPOrderStatus {
	if mapped, ok := ucpStatusByNative[native]; ok {
		return mapped
	}
	return UCPOrderStatusPending
}
