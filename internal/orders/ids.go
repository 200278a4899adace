package orders

import (
	"strconv"
	"strings"

	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
)

// order id prefixes accepted on lookup, longest first so sw_order_ is not
// consumed by the sw_ session form. All encodings address the same record.
var idPrefixes = []string{"sw_order_", "ord_", "chk_", "sw_"}

// LegacyOrderID encodes an order number in the flat-dialect form.
func LegacyOrderID(number int64) string {
	return "sw_order_" + strconv.FormatInt(number, 10)
}

// UCPOrderID encodes an order number in the current-dialect form.
func UCPOrderID(number int64) string {
	return "ord_" + strconv.FormatInt(number, 10)
}

// ParseID accepts any of the four public encodings (order ids and
// session-derived ids) and returns the order number.
func ParseID(id string) (int64, error) {
	trimmed := strings.TrimSpace(id)
	for _, prefix := range idPrefixes {
		if !strings.HasPrefix(trimmed, prefix) {
			continue
		}
		number, err := strconv.ParseInt(strings.TrimPrefix(trimmed, prefix), 10, 64)
		if err != nil || number <= 0 {
			break
		}
		return number, nil
	}
	return 0, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}
