package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

type memIdempotencyStore struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	if value, ok := m.values[key]; ok {
		return value, nil
	}
	return "", redis.Nil
}

func (m *memIdempotencyStore) SetNX(_ context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if _, ok := m.values[key]; ok {
		return false, nil
	}
	m.values[key] = fmt.Sprint(value)
	m.ttls[key] = ttl
	return true, nil
}

func (m *memIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (m *memIdempotencyStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
		delete(m.ttls, key)
	}
	return nil
}

func countingHandler(counter *int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*counter++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		fmt.Fprintf(w, `{"attempt":%d}`, *counter)
	})
}

func postJSON(handler http.Handler, path, key, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestIdempotencyReplaysStoredResponse(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(countingHandler(&calls))

	first := postJSON(handler, "/api/legacy/v1/checkout-sessions", "key-1", `{"line_items":[]}`)
	assert.Equal(t, http.StatusCreated, first.Code)
	assert.Equal(t, 1, calls)

	second := postJSON(handler, "/api/legacy/v1/checkout-sessions", "key-1", `{"line_items":[]}`)
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, 1, calls, "replay must not invoke the handler again")
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "application/json", second.Header().Get("Content-Type"))
}

func TestIdempotencyRejectsKeyReuseWithDifferentBody(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(countingHandler(&calls))

	postJSON(handler, "/api/legacy/v1/checkout-sessions", "key-2", `{"line_items":[1]}`)

	rec := postJSON(handler, "/api/legacy/v1/checkout-sessions", "key-2", `{"line_items":[2]}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, 1, calls)

	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "IDEMPOTENCY_KEY_REUSED", envelope.Error.Code)
}

func TestIdempotencyRequiresHeaderOnGuardedRoutes(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(countingHandler(&calls))

	legacy := postJSON(handler, "/api/legacy/v1/checkout-sessions", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, legacy.Code)
	var envelope types.ErrorEnvelope
	require.NoError(t, json.Unmarshal(legacy.Body.Bytes(), &envelope))
	assert.Equal(t, "VALIDATION_ERROR", envelope.Error.Code)

	// the same failure on the current dialect uses the messages envelope
	ucp := postJSON(handler, "/ucp/v1/checkout-sessions", "", `{}`)
	assert.Equal(t, http.StatusBadRequest, ucp.Code)
	var messages types.MessagesEnvelope
	require.NoError(t, json.Unmarshal(ucp.Body.Bytes(), &messages))
	require.Len(t, messages.Messages, 1)

	assert.Equal(t, 0, calls)
}

func TestIdempotencyIgnoresUnguardedRoutes(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(countingHandler(&calls))

	rec := postJSON(handler, "/api/legacy/v1/webhooks", "", `{}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, calls)
	assert.Empty(t, store.values)
}

func TestIdempotencyTTLPerRoute(t *testing.T) {
	store := newMemIdempotencyStore()
	calls := 0
	handler := Idempotency(store, nil)(countingHandler(&calls))

	postJSON(handler, "/ucp/v1/checkout-sessions", "create-key", `{}`)
	postJSON(handler, "/ucp/v1/checkout-sessions/chk_1/complete", "complete-key", `{}`)
	postJSON(handler, "/api/legacy/v1/orders/sw_order_1/refund", "refund-key", `{}`)

	assert.Equal(t, 24*time.Hour, store.ttls[store.IdempotencyKey("POST|/ucp/v1/checkout-sessions", "create-key")])
	assert.Equal(t, 7*24*time.Hour, store.ttls[store.IdempotencyKey("POST|/ucp/v1/checkout-sessions/chk_1/complete", "complete-key")])
	assert.Equal(t, 7*24*time.Hour, store.ttls[store.IdempotencyKey("POST|/api/legacy/v1/orders/sw_order_1/refund", "refund-key")])
}
