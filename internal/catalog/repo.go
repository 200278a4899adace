package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a catalog repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

// FindProductByRef accepts either a product UUID or a SKU.
func (r *repository) FindProductByRef(ctx context.Context, ref string) (*models.Product, error) {
	var product models.Product
	query := r.db.WithContext(ctx).Preload("Variants")
	if id, err := uuid.Parse(ref); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("sku = ?", ref)
	}
	if err := query.First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *repository) FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	err := r.db.WithContext(ctx).
		Where("id = ?", variantID).
		First(&variant).Error
	if err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error {
	db := r.db.WithContext(ctx)
	if variantID != nil {
		return db.Exec(`
			UPDATE product_variants
			SET stock_qty = stock_qty - ?, updated_at = CURRENT_TIMESTAMP
			WHERE id = ? AND stock_qty >= ?
		`, qty, *variantID, qty).Error
	}
	return db.Exec(`
		UPDATE products
		SET stock_qty = stock_qty - ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND stock_qty >= ?
	`, qty, productID, qty).Error
}
