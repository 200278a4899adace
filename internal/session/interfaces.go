package session

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
)

// Repository defines persistence for sessions and their backing orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	NextOrderNumber(ctx context.Context) (int64, error)
	CreateOrder(ctx context.Context, order *models.Order) error
	CreateLineItems(ctx context.Context, items []models.OrderLineItem) error
	CreateSession(ctx context.Context, session *models.CheckoutSession) error
	FindByNumber(ctx context.Context, number int64) (*models.CheckoutSession, error)
	UpdateSession(ctx context.Context, id uuid.UUID, version int, updates map[string]any) error
	UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error
	IncrementCouponUsage(ctx context.Context, codes []string) error
}

// Service is the checkout session state machine.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*View, error)
	Get(ctx context.Context, id string) (*View, error)
	Update(ctx context.Context, id string, input UpdateInput) (*View, error)
	Complete(ctx context.Context, id string, input CompleteInput) (*CompleteResult, error)
	Cancel(ctx context.Context, id string) (*View, error)
}
