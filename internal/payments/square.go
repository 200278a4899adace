package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	sq "github.com/square/square-go-sdk"
	sqclient "github.com/square/square-go-sdk/client"
	sqcore "github.com/square/square-go-sdk/core"
	sqoption "github.com/square/square-go-sdk/option"

	"github.com/shopwalk/shopwalk-backend/pkg/config"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
)

const (
	sandboxEnv    = "sandbox"
	productionEnv = "production"
)

var baseURLs = map[string]string{
	sandboxEnv:    "https://connect.squareupsandbox.com",
	productionEnv: "https://connect.squareup.com",
}

// tokenSchemes recognized for direct charging. Anything else is routed to
// the manual-capture path for backward compatibility.
var tokenSchemes = []string{"cnon:", "ccof:", "cof_", "tok_"}

type squareAdapter struct {
	sdk        paymentsCreator
	locationID string
	configured bool
	logger     *logger.Logger
}

type paymentsCreator interface {
	CreatePayment(ctx context.Context, req *sq.CreatePaymentRequest) (*sq.CreatePaymentResponse, error)
}

type sdkPayments struct {
	client *sqclient.Client
}

func (s sdkPayments) CreatePayment(ctx context.Context, req *sq.CreatePaymentRequest) (*sq.CreatePaymentResponse, error) {
	return s.client.Payments.Create(ctx, req)
}

// NewSquareAdapter builds the Square-backed charge adapter. Missing
// credentials are not an error here: the adapter reports config_missing at
// charge time so deployments without payments still boot.
func NewSquareAdapter(cfg config.SquareConfig, logg *logger.Logger) (Adapter, error) {
	if logg == nil {
		return nil, fmt.Errorf("payments logger required")
	}
	adapter := &squareAdapter{
		locationID: strings.TrimSpace(cfg.LocationID),
		logger:     logg,
	}
	if !cfg.Configured() {
		return adapter, nil
	}
	env := cfg.Environment()
	baseURL, ok := baseURLs[env]
	if !ok {
		return nil, fmt.Errorf("square environment must be %q or %q", sandboxEnv, productionEnv)
	}
	client := sqclient.NewClient(
		sqoption.WithBaseURL(baseURL),
		sqoption.WithToken(strings.TrimSpace(cfg.AccessToken)),
	)
	adapter.sdk = sdkPayments{client: client}
	adapter.configured = true
	return adapter, nil
}

func (a *squareAdapter) Charge(ctx context.Context, input ChargeInput) (ChargeResult, error) {
	if !a.configured {
		return ChargeResult{Outcome: OutcomeConfigMissing, Reason: "payment backend not configured"}, nil
	}
	if !recognizedToken(input.Token) {
		a.logger.Info(a.logger.WithFields(ctx, map[string]any{
			"handler_id": input.HandlerID,
		}), "unrecognized payment token scheme, routing to manual capture")
		return ChargeResult{Outcome: OutcomeManual, Reason: "token scheme not recognized"}, nil
	}

	req := &sq.CreatePaymentRequest{
		IdempotencyKey: input.IdempotencyKey,
		SourceID:       input.Token,
		AmountMoney:    moneyPtr(input.AmountCents, input.Currency),
	}
	if a.locationID != "" {
		req.LocationID = &a.locationID
	}
	if note := strings.TrimSpace(input.Note); note != "" {
		req.Note = &note
	}

	resp, err := a.sdk.CreatePayment(ctx, req)
	if err != nil {
		return a.mapChargeError(ctx, err)
	}

	payment := resp.GetPayment()
	reference := ""
	if payment != nil && payment.GetID() != nil {
		reference = *payment.GetID()
	}
	return ChargeResult{Outcome: OutcomeSucceeded, Reference: reference}, nil
}

func (a *squareAdapter) mapChargeError(ctx context.Context, err error) (ChargeResult, error) {
	var apiErr *sqcore.APIError
	if errors.As(err, &apiErr) {
		for _, sqErr := range extractSquareErrors(apiErr) {
			if sqErr == nil {
				continue
			}
			switch {
			case string(sqErr.Category) == "PAYMENT_METHOD_ERROR":
				reason := string(sqErr.Code)
				if sqErr.Detail != nil {
					reason = *sqErr.Detail
				}
				if strings.Contains(string(sqErr.Code), "VERIFICATION_REQUIRED") {
					return ChargeResult{Outcome: OutcomeRequiresAction, Reason: reason}, nil
				}
				return ChargeResult{Outcome: OutcomeDeclined, Reason: reason}, nil
			case sqErr.Category == sq.ErrorCategoryAuthenticationError:
				return ChargeResult{Outcome: OutcomeConfigMissing, Reason: "payment backend credentials rejected"}, nil
			}
		}
		if apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
			return ChargeResult{Outcome: OutcomeDeclined, Reason: err.Error()}, nil
		}
	}
	a.logger.Error(ctx, "square charge failed", err)
	return ChargeResult{}, fmt.Errorf("square charge: %w", err)
}

func recognizedToken(token string) bool {
	trimmed := strings.TrimSpace(token)
	for _, scheme := range tokenSchemes {
		if strings.HasPrefix(trimmed, scheme) {
			return true
		}
	}
	return false
}

func extractSquareErrors(apiErr *sqcore.APIError) []*sq.Error {
	if apiErr == nil {
		return nil
	}
	inner := apiErr.Unwrap()
	if inner == nil {
		return nil
	}
	raw := strings.TrimSpace(inner.Error())
	if raw == "" {
		return nil
	}
	var payload struct {
		Errors []*sq.Error `json:"errors"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil
	}
	return payload.Errors
}

func moneyPtr(amount int, currency string) *sq.Money {
	value := int64(amount)
	trimmed := strings.ToUpper(strings.TrimSpace(currency))
	if trimmed == "" {
		trimmed = "USD"
	}
	code := sq.Currency(trimmed)
	return &sq.Money{Amount: &value, Currency: &code}
}
