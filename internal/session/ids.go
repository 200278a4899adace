package session

import (
	"fmt"
	"strconv"
	"strings"

	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
)

const (
	legacyIDPrefix = "sw_"
	ucpIDPrefix    = "chk_"
)

// LegacyID encodes a session number in the flat-dialect form.
func LegacyID(number int64) string {
	return fmt.Sprintf("%s%d", legacyIDPrefix, number)
}

// UCPID encodes a session number in the current-dialect form.
func UCPID(number int64) string {
	return fmt.Sprintf("%s%d", ucpIDPrefix, number)
}

// ParseID accepts either encoding and returns the session number. Both forms
// address the same underlying record.
func ParseID(id string) (int64, error) {
	trimmed := strings.TrimSpace(id)
	var raw string
	switch {
	case strings.HasPrefix(trimmed, ucpIDPrefix):
		raw = strings.TrimPrefix(trimmed, ucpIDPrefix)
	case strings.HasPrefix(trimmed, legacyIDPrefix):
		raw = strings.TrimPrefix(trimmed, legacyIDPrefix)
	default:
		return 0, pkgerrors.New(pkgerrors.CodeSessionNotFound, "session not found")
	}
	number, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || number <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeSessionNotFound, "session not found")
	}
	return number, nil
}
