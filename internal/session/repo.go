package session

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a session repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// NextOrderNumber allocates the next public order number. Callers run this
// inside the creation transaction so the number is taken exactly once.
func (r *repository) NextOrderNumber(ctx context.Context) (int64, error) {
	var current int64
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(MAX(order_number), 0)").
		Scan(&current).Error
	if err != nil {
		return 0, err
	}
	return current + 1, nil
}

func (r *repository) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) CreateLineItems(ctx context.Context, items []models.OrderLineItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) CreateSession(ctx context.Context, session *models.CheckoutSession) error {
	return r.db.WithContext(ctx).Create(session).Error
}

func (r *repository) FindByNumber(ctx context.Context, number int64) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).
		Preload("Order").
		Preload("Order.Items").
		Preload("Order.Refunds").
		Joins("JOIN orders ON orders.id = checkout_sessions.order_id").
		Where("orders.order_number = ?", number).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// UpdateSession applies updates guarded by the optimistic version column; a
// concurrent writer that advanced the version first wins and this write is
// rejected with a conflict.
func (r *repository) UpdateSession(ctx context.Context, id uuid.UUID, version int, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	updates["version"] = version + 1
	res := r.db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "session was modified concurrently")
	}
	return nil
}

func (r *repository) UpdateOrder(ctx context.Context, orderID uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(updates).Error
}

func (r *repository) IncrementCouponUsage(ctx context.Context, codes []string) error {
	if len(codes) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Coupon{}).
		Where("code IN ?", codes).
		UpdateColumn("usage_count", gorm.Expr("usage_count + 1")).Error
}
