package webhooks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
)

type service struct {
	repo Repository
}

// NewService builds the registration CRUD service.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("webhooks repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*models.WebhookRegistration, error) {
	endpoint := strings.TrimSpace(input.URL)
	parsed, err := url.Parse(endpoint)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "url must be an absolute http(s) endpoint")
	}

	events := make(pq.StringArray, 0, len(input.Events))
	for _, raw := range input.Events {
		event, err := enums.ParseWebhookEvent(strings.TrimSpace(raw))
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown event %q", raw))
		}
		events = append(events, string(event))
	}

	secret := strings.TrimSpace(input.Secret)
	if secret == "" {
		secret, err = generateSecret()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate webhook secret")
		}
	}

	registration := &models.WebhookRegistration{
		ID:     uuid.New(),
		URL:    endpoint,
		Events: events,
		Secret: secret,
		Active: true,
	}
	if err := s.repo.Create(ctx, registration); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create webhook registration")
	}
	return registration, nil
}

func (s *service) List(ctx context.Context) ([]models.WebhookRegistration, error) {
	registrations, err := s.repo.List(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list webhook registrations")
	}
	return registrations, nil
}

func (s *service) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "webhook registration not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load webhook registration")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete webhook registration")
	}
	return nil
}

func generateSecret() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
