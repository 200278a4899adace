package validators

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
)

// QueryInt reads an integer query parameter, returning fallback when the
// parameter is absent or blank. Values outside [lo, hi] are rejected.
func QueryInt(r *http.Request, key string, fallback, lo, hi int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s must be an integer", key)).WithDetails(map[string]any{"field": key})
	}
	if n < lo || n > hi {
		return 0, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("%s must be between %d and %d", key, lo, hi)).WithDetails(map[string]any{"field": key})
	}
	return n, nil
}
