package webhooks

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a webhook registration repository bound to the
// provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, registration *models.WebhookRegistration) error {
	return r.db.WithContext(ctx).Create(registration).Error
}

func (r *repository) List(ctx context.Context) ([]models.WebhookRegistration, error) {
	var registrations []models.WebhookRegistration
	err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&registrations).Error
	if err != nil {
		return nil, err
	}
	return registrations, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.WebhookRegistration, error) {
	var registration models.WebhookRegistration
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&registration).Error
	if err != nil {
		return nil, err
	}
	return &registration, nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id).
		Delete(&models.WebhookRegistration{}).Error
}

func (r *repository) ListActiveForEvent(ctx context.Context, event enums.WebhookEvent) ([]models.WebhookRegistration, error) {
	var registrations []models.WebhookRegistration
	err := r.db.WithContext(ctx).
		Where("active = ?", true).
		Find(&registrations).Error
	if err != nil {
		return nil, err
	}
	// The event filter is applied in Go; text[] membership queries differ
	// between the production and test drivers.
	filtered := registrations[:0]
	for _, registration := range registrations {
		if len(registration.Events) == 0 {
			filtered = append(filtered, registration)
			continue
		}
		for _, filter := range registration.Events {
			if filter == string(event) {
				filtered = append(filtered, registration)
				break
			}
		}
	}
	return filtered, nil
}
