package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
)

// Code identifies an error class; the legacy dialect exposes it verbatim.
type Code string

const (
	CodeValidation            Code = "VALIDATION_ERROR"
	CodeNotFound              Code = "NOT_FOUND"
	CodeSessionNotFound       Code = "SESSION_NOT_FOUND"
	CodeSessionExpired        Code = "SESSION_EXPIRED"
	CodeInvalidCoupon         Code = "INVALID_COUPON"
	CodeMissingFields         Code = "MISSING_REQUIRED_FIELDS"
	CodeConflict              Code = "CONFLICT"
	CodeAlreadyCompleted      Code = "ALREADY_COMPLETED"
	CodePaymentFailed         Code = "PAYMENT_FAILED"
	CodePaymentDeclined       Code = "PAYMENT_DECLINED"
	CodePaymentNotConfigured  Code = "PAYMENT_NOT_CONFIGURED"
	CodePaymentRequiresAction Code = "PAYMENT_REQUIRES_ACTION"
	CodeInvalidRefundAmount   Code = "INVALID_REFUND_AMOUNT"
	CodeRefundExceedsTotal    Code = "REFUND_EXCEEDS_ORDER_TOTAL"
	CodeIdempotency           Code = "IDEMPOTENCY_KEY_REUSED"
	CodeInternal              Code = "INTERNAL_ERROR"
	CodeDependency            Code = "DEPENDENCY_ERROR"
)

// Metadata is the wire behavior attached to a code: the HTTP status, whether
// an agent should retry, the message shown when the typed one is withheld,
// and whether structured details may leave the server.
type Metadata struct {
	HTTPStatus     int
	Retryable      bool
	PublicMessage  string
	DetailsAllowed bool
}

var metadataByCode = map[Code]Metadata{
	CodeValidation:            {HTTPStatus: http.StatusBadRequest, PublicMessage: "validation failed", DetailsAllowed: true},
	CodeNotFound:              {HTTPStatus: http.StatusNotFound, PublicMessage: "resource not found"},
	CodeSessionNotFound:       {HTTPStatus: http.StatusNotFound, PublicMessage: "checkout session not found"},
	CodeSessionExpired:        {HTTPStatus: http.StatusGone, PublicMessage: "checkout session expired"},
	CodeInvalidCoupon:         {HTTPStatus: http.StatusBadRequest, PublicMessage: "coupon is not valid", DetailsAllowed: true},
	CodeMissingFields:         {HTTPStatus: http.StatusUnprocessableEntity, PublicMessage: "required fields missing", DetailsAllowed: true},
	CodeConflict:              {HTTPStatus: http.StatusConflict, PublicMessage: "conflict detected"},
	CodeAlreadyCompleted:      {HTTPStatus: http.StatusConflict, PublicMessage: "checkout session already completed"},
	CodePaymentFailed:         {HTTPStatus: http.StatusPaymentRequired, PublicMessage: "payment failed", DetailsAllowed: true},
	CodePaymentDeclined:       {HTTPStatus: http.StatusPaymentRequired, Retryable: true, PublicMessage: "payment was declined", DetailsAllowed: true},
	CodePaymentNotConfigured:  {HTTPStatus: http.StatusPaymentRequired, PublicMessage: "payment backend is not configured"},
	CodePaymentRequiresAction: {HTTPStatus: http.StatusPaymentRequired, Retryable: true, PublicMessage: "payment requires further action", DetailsAllowed: true},
	CodeInvalidRefundAmount:   {HTTPStatus: http.StatusBadRequest, PublicMessage: "refund amount must be greater than zero", DetailsAllowed: true},
	CodeRefundExceedsTotal:    {HTTPStatus: http.StatusBadRequest, PublicMessage: "refund exceeds the refundable amount", DetailsAllowed: true},
	CodeIdempotency:           {HTTPStatus: http.StatusConflict, PublicMessage: "idempotency key reused", DetailsAllowed: true},
	CodeInternal:              {HTTPStatus: http.StatusInternalServerError, Retryable: true, PublicMessage: "internal server error"},
	CodeDependency:            {HTTPStatus: http.StatusServiceUnavailable, Retryable: true, PublicMessage: "dependency unavailable", DetailsAllowed: true},
}

// MetadataFor returns the wire behavior for code, falling back to the
// internal-error row for anything unknown.
func MetadataFor(code Code) Metadata {
	if meta, ok := metadataByCode[code]; ok {
		return meta
	}
	return metadataByCode[CodeInternal]
}

// Error is a coded error. Fields stay unexported so every write path goes
// through the constructors and the response layer decides what leaves.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Wrap(code Code, err error, message string) *Error {
	if err == nil {
		return New(code, message)
	}
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails attaches structured context; the response layer only emits it
// when the code's metadata allows.
func (e *Error) WithDetails(details any) *Error {
	if e == nil {
		return nil
	}
	e.details = details
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As extracts the first coded error in the chain, or nil.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}
