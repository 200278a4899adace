package controllers

import (
	"context"
	"net/http"

	"github.com/shopwalk/shopwalk-backend/api/responses"
	"github.com/shopwalk/shopwalk-backend/pkg/config"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
)

// Pinger is the health-check surface of an infrastructure dependency.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopwalk-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness by pinging the hard dependencies. Redis is
// optional infrastructure; a nil client is skipped, a failing one is not.
func HealthReady(cfg *config.Config, logg *logger.Logger, pingers ...Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Shopwalk-Env", cfg.App.Env)
		for _, p := range pingers {
			if p == nil {
				continue
			}
			if err := p.Ping(r.Context()); err != nil {
				responses.WriteLegacyError(r.Context(), logg, w,
					pkgerrors.Wrap(pkgerrors.CodeDependency, err, "readiness check"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
