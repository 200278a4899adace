package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/shopwalk/shopwalk-backend/api/responses"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	pkgredis "github.com/shopwalk/shopwalk-backend/pkg/redis"
)

const (
	createReplayTTL = 24 * time.Hour
	moneyReplayTTL  = 7 * 24 * time.Hour
)

// guardedRoute marks a POST endpoint that requires an Idempotency-Key.
// Session creation replays for a day; anything that moves money replays
// for a week.
type guardedRoute struct {
	match func(pattern string) bool
	ttl   time.Duration
}

var guardedRoutes = []guardedRoute{
	{match: exact("/api/legacy/v1/checkout-sessions"), ttl: createReplayTTL},
	{match: exact("/ucp/v1/checkout-sessions"), ttl: createReplayTTL},
	{match: bracketed("/api/legacy/v1/checkout-sessions/", "/complete"), ttl: moneyReplayTTL},
	{match: bracketed("/ucp/v1/checkout-sessions/", "/complete"), ttl: moneyReplayTTL},
	{match: bracketed("/api/legacy/v1/orders/", "/refund"), ttl: moneyReplayTTL},
	{match: bracketed("/ucp/v1/orders/", "/refund"), ttl: moneyReplayTTL},
}

func exact(path string) func(string) bool {
	return func(pattern string) bool { return pattern == path }
}

func bracketed(prefix, suffix string) func(string) bool {
	return func(pattern string) bool {
		return strings.HasPrefix(pattern, prefix) && strings.HasSuffix(pattern, suffix)
	}
}

// storedResponse is the replay record persisted in redis.
type storedResponse struct {
	Status      int    `json:"status"`
	Body        string `json:"body"`
	ContentType string `json:"content_type,omitempty"`
	RequestHash string `json:"request_hash"`
}

// Idempotency replays prior responses for guarded POSTs carrying a seen
// Idempotency-Key, and rejects key reuse with a different request body.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ttl, guarded := lookupGuard(r)
			if !guarded || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if key == "" {
				dialectError(r, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				dialectError(r, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			sum := sha256.Sum256(body)
			requestHash := hex.EncodeToString(sum[:])
			scope := r.Method + "|" + r.URL.Path
			storeKey := store.IdempotencyKey(scope, key)

			prior, err := store.Get(r.Context(), storeKey)
			switch {
			case err != nil && !errors.Is(err, redis.Nil):
				dialectError(r, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
				return
			case prior != "":
				replay(r, logg, w, prior, requestHash)
				return
			}

			capture := &captureWriter{ResponseWriter: w}
			next.ServeHTTP(capture, r)

			record := storedResponse{
				Status:      capture.statusOr(http.StatusOK),
				Body:        base64.StdEncoding.EncodeToString(capture.body.Bytes()),
				ContentType: capture.Header().Get("Content-Type"),
				RequestHash: requestHash,
			}
			payload, err := json.Marshal(record)
			if err == nil {
				_, err = store.SetNX(r.Context(), storeKey, string(payload), ttl)
			}
			if err != nil && logg != nil {
				logg.Error(r.Context(), "persist idempotency record", err)
			}
		})
	}
}

func lookupGuard(r *http.Request) (time.Duration, bool) {
	if r.Method != http.MethodPost {
		return 0, false
	}
	pattern := r.URL.Path
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			pattern = p
		}
	}
	for _, route := range guardedRoutes {
		if route.match(pattern) {
			return route.ttl, true
		}
	}
	return 0, false
}

func replay(r *http.Request, logg *logger.Logger, w http.ResponseWriter, prior, requestHash string) {
	var record storedResponse
	if err := json.Unmarshal([]byte(prior), &record); err != nil {
		dialectError(r, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if record.RequestHash != requestHash {
		dialectError(r, logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if record.ContentType != "" {
		w.Header().Set("Content-Type", record.ContentType)
	}
	w.WriteHeader(record.Status)
	if decoded, err := base64.StdEncoding.DecodeString(record.Body); err == nil {
		_, _ = w.Write(decoded)
	}
}

type captureWriter struct {
	http.ResponseWriter
	body   bytes.Buffer
	status int
}

func (c *captureWriter) WriteHeader(code int) {
	c.status = code
	c.ResponseWriter.WriteHeader(code)
}

func (c *captureWriter) Write(b []byte) (int, error) {
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}

func (c *captureWriter) statusOr(fallback int) int {
	if c.status == 0 {
		return fallback
	}
	return c.status
}

// dialectError picks the error shape matching the namespace the request hit.
func dialectError(r *http.Request, logg *logger.Logger, w http.ResponseWriter, err error) {
	if strings.HasPrefix(r.URL.Path, "/ucp/") {
		responses.WriteUCPError(r.Context(), logg, w, err)
		return
	}
	responses.WriteLegacyError(r.Context(), logg, w, err)
}
