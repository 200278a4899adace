package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
	"github.com/shopwalk/shopwalk-backend/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

// WriteSuccessStatus writes data as the raw response body. Neither dialect
// wraps success payloads in an envelope.
func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, data)
}

// WriteLegacyError renders err in the flat dialect's `{"error":{...}}`
// shape. Payment conditions are collapsed to the generic PAYMENT_FAILED code
// this dialect has always used.
func WriteLegacyError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed, meta := classify(err)
	logError(ctx, logg, typed, err)

	code := typed.Code()
	switch code {
	case pkgerrors.CodePaymentDeclined,
		pkgerrors.CodePaymentNotConfigured,
		pkgerrors.CodePaymentRequiresAction:
		code = pkgerrors.CodePaymentFailed
	}

	msg := meta.PublicMessage
	if m := typed.Message(); m != "" && code == typed.Code() {
		msg = m
	}
	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(code),
			Message: msg,
		},
	}
	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}
	writeJSON(w, meta.HTTPStatus, payload)
}

// WriteUCPError renders err in the current dialect's messages envelope.
// Errors carrying a []types.Message detail payload are emitted verbatim so
// several field-level diagnostics surface in one response.
func WriteUCPError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed, meta := classify(err)
	logError(ctx, logg, typed, err)

	var messages []types.Message
	if detail, ok := typed.Details().([]types.Message); ok && len(detail) > 0 {
		messages = detail
	} else {
		content := meta.PublicMessage
		if m := typed.Message(); m != "" {
			content = m
		}
		message := types.NewErrorMessage(ucpCode(typed.Code()), "", content)
		if meta.Retryable {
			message.Severity = "recoverable"
		}
		messages = []types.Message{message}
	}
	writeJSON(w, meta.HTTPStatus, types.MessagesEnvelope{Messages: messages})
}

func classify(err error) (*pkgerrors.Error, pkgerrors.Metadata) {
	if err == nil {
		err = errors.New("unknown error")
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}
	return typed, pkgerrors.MetadataFor(typed.Code())
}

func ucpCode(code pkgerrors.Code) string {
	switch code {
	case pkgerrors.CodeSessionNotFound, pkgerrors.CodeNotFound:
		return "not_found"
	case pkgerrors.CodeSessionExpired:
		return "expired"
	case pkgerrors.CodeMissingFields:
		return "missing"
	case pkgerrors.CodeInvalidCoupon:
		return "invalid_coupon"
	case pkgerrors.CodePaymentNotConfigured:
		return "payment_not_configured"
	case pkgerrors.CodePaymentRequiresAction:
		return "payment_requires_action"
	case pkgerrors.CodePaymentDeclined:
		return "payment_declined"
	case pkgerrors.CodeAlreadyCompleted, pkgerrors.CodeConflict, pkgerrors.CodeIdempotency:
		return "conflict"
	default:
		return strings.ToLower(string(code))
	}
}

func logError(ctx context.Context, logg *logger.Logger, typed *pkgerrors.Error, err error) {
	if logg == nil {
		return
	}
	dump := pkgerrors.Dump(err)
	fields := map[string]any{
		"error":         dump.TopMessage,
		"error_code":    dump.Code,
		"error_chain":   dump.Chain,
		"pg_code":       dump.PGCode,
		"pg_detail":     dump.PGDetail,
		"pg_message":    dump.PGMessage,
		"pg_table":      dump.PGTable,
		"pg_column":     dump.PGColumn,
		"pg_constraint": dump.PGConstraint,
	}
	ctx = logg.WithFields(ctx, fields)
	logg.Error(ctx, "request.error", err)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
