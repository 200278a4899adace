package orders

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	"github.com/shopwalk/shopwalk-backend/pkg/pagination"
)

// Repository defines order persistence for the projection and refund engine.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByNumber(ctx context.Context, number int64) (*models.Order, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListCompletedByEmail(ctx context.Context, email string, params pagination.Params) ([]models.Order, int64, error)
	CreateRefund(ctx context.Context, refund *models.OrderRefund) error
	CreateFulfillmentEvent(ctx context.Context, event *models.FulfillmentEvent) error
	UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.NativeOrderStatus) error
}

// Service serves order projections and performs refund/fulfillment/status
// operations against completed checkouts.
type Service interface {
	Get(ctx context.Context, id string) (*View, error)
	GetByID(ctx context.Context, orderID uuid.UUID) (*View, error)
	ListByEmail(ctx context.Context, email string, params pagination.Params) (*List, error)
	Refund(ctx context.Context, id string, input RefundInput) (*RefundView, error)
	RecordFulfillment(ctx context.Context, id string, input FulfillmentInput) (*View, error)
	UpdateNativeStatus(ctx context.Context, id string, status enums.NativeOrderStatus) (*View, error)
}
