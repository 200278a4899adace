package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
)

// Repository defines the catalog persistence surface.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindProductByRef(ctx context.Context, ref string) (*models.Product, error)
	FindVariant(ctx context.Context, variantID uuid.UUID) (*models.ProductVariant, error)
	DecrementStock(ctx context.Context, productID uuid.UUID, variantID *uuid.UUID, qty int) error
}

// Service resolves item references into priced line item candidates. Stock
// and price are read from the store at call time, never cached.
type Service interface {
	Resolve(ctx context.Context, ref ItemRef, qty int) (Resolution, error)
	DecrementStock(ctx context.Context, tx *gorm.DB, candidate LineItemCandidate, qty int) error
}
