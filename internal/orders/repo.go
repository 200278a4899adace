package orders

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	"github.com/shopwalk/shopwalk-backend/pkg/enums"
	"github.com/shopwalk/shopwalk-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByNumber(ctx context.Context, number int64) (*models.Order, error) {
	var order models.Order
	err := r.preloaded(ctx).
		Where("order_number = ?", number).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.preloaded(ctx).
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListCompletedByEmail pages orders whose checkout reached completion; carts
// still in progress never surface through the orders listing.
func (r *repository) ListCompletedByEmail(ctx context.Context, email string, params pagination.Params) ([]models.Order, int64, error) {
	params = params.Normalize()
	base := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Joins("JOIN checkout_sessions ON checkout_sessions.order_id = orders.id").
		Where("checkout_sessions.status = ?", enums.CheckoutStatusCompleted).
		Where("LOWER(orders.buyer_email) = ?", strings.ToLower(strings.TrimSpace(email)))

	var total int64
	if err := base.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var orders []models.Order
	err := r.preloaded(ctx).
		Joins("JOIN checkout_sessions ON checkout_sessions.order_id = orders.id").
		Where("checkout_sessions.status = ?", enums.CheckoutStatusCompleted).
		Where("LOWER(orders.buyer_email) = ?", strings.ToLower(strings.TrimSpace(email))).
		Order("orders.order_number DESC").
		Limit(params.PerPage).
		Offset(params.Offset()).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *repository) CreateRefund(ctx context.Context, refund *models.OrderRefund) error {
	return r.db.WithContext(ctx).Create(refund).Error
}

func (r *repository) CreateFulfillmentEvent(ctx context.Context, event *models.FulfillmentEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) UpdateStatus(ctx context.Context, orderID uuid.UUID, status enums.NativeOrderStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Update("status", status).Error
}

func (r *repository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items").
		Preload("Refunds").
		Preload("FulfillmentEvents").
		Preload("Session")
}
