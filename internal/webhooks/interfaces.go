package webhooks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
)

// Repository defines persistence for legacy webhook registrations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, registration *models.WebhookRegistration) error
	List(ctx context.Context) ([]models.WebhookRegistration, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.WebhookRegistration, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListActiveForEvent(ctx context.Context, event enums.WebhookEvent) ([]models.WebhookRegistration, error)
}

// Service manages registration CRUD for the legacy dialect.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*models.WebhookRegistration, error)
	List(ctx context.Context) ([]models.WebhookRegistration, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// RegisterInput carries a registration request. An empty secret gets a
// generated one, returned once in the create response.
type RegisterInput struct {
	URL    string
	Events []string
	Secret string
}
