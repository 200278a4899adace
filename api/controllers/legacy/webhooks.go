package legacy

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/shopwalk/shopwalk-backend/api/responses"
	"github.com/shopwalk/shopwalk-backend/api/validators"
	webhooksvc "github.com/shopwalk/shopwalk-backend/internal/webhooks"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/logger"
)

// WebhookRegister creates a delivery registration. The shared secret is
// returned once here and never listed again.
func WebhookRegister(svc webhooksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body registerWebhookRequest
		if err := validators.DecodeStrict(r, &body); err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		registration, err := svc.Register(r.Context(), webhooksvc.RegisterInput{
			URL:    body.URL,
			Events: body.Events,
			Secret: body.Secret,
		})
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}

		resp := newWebhookResponse(registration)
		resp.Secret = registration.Secret
		responses.WriteSuccessStatus(w, http.StatusCreated, resp)
	}
}

func WebhookList(svc webhooksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		registrations, err := svc.List(r.Context())
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		webhooks := make([]webhookResponse, 0, len(registrations))
		for i := range registrations {
			webhooks = append(webhooks, newWebhookResponse(&registrations[i]))
		}
		responses.WriteSuccess(w, webhookListResponse{Webhooks: webhooks})
	}
}

func WebhookDelete(svc webhooksvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "webhookId"))
		if err != nil {
			responses.WriteLegacyError(r.Context(), logg, w,
				pkgerrors.New(pkgerrors.CodeValidation, "invalid webhook id"))
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteLegacyError(r.Context(), logg, w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type registerWebhookRequest struct {
	URL    string   `json:"url" validate:"required,url"`
	Events []string `json:"events" validate:"required,min=1"`
	Secret string   `json:"secret,omitempty"`
}

type webhookResponse struct {
	ID        uuid.UUID `json:"id"`
	URL       string    `json:"url"`
	Events    []string  `json:"events"`
	Secret    string    `json:"secret,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type webhookListResponse struct {
	Webhooks []webhookResponse `json:"webhooks"`
}

func newWebhookResponse(registration *models.WebhookRegistration) webhookResponse {
	if registration == nil {
		return webhookResponse{}
	}
	return webhookResponse{
		ID:        registration.ID,
		URL:       registration.URL,
		Events:    registration.Events,
		Active:    registration.Active,
		CreatedAt: registration.CreatedAt,
	}
}
