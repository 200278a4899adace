package ucp

import (
	"net/http"

	"github.com/shopwalk/shopwalk-backend/api/responses"
	"github.com/shopwalk/shopwalk-backend/internal/discovery"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
)

// Discovery serves the well-known profile: protocol version, capabilities,
// endpoints, payment handlers and the public webhook signing keys.
func Discovery(builder *discovery.Builder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if builder == nil {
			responses.WriteUCPError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "discovery unavailable"))
			return
		}
		responses.WriteSuccess(w, builder.Profile())
	}
}
