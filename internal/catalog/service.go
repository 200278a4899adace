package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/shopwalk/shopwalk-backend/pkg/db/models"
	pkgerrors "github.com/shopwalk/shopwalk-backend/pkg/errors"
)

type service struct {
	repo Repository
}

// NewService builds a catalog service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("catalog repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Resolve(ctx context.Context, ref ItemRef, qty int) (Resolution, error) {
	if strings.TrimSpace(ref.ProductRef) == "" || qty < 1 {
		return Resolution{Result: ResolutionNotFound, Ref: ref}, nil
	}

	product, err := s.repo.FindProductByRef(ctx, strings.TrimSpace(ref.ProductRef))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return Resolution{Result: ResolutionNotFound, Ref: ref}, nil
		}
		return Resolution{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	if !product.Active {
		return Resolution{Result: ResolutionNotFound, Ref: ref}, nil
	}

	variant, err := s.pickVariant(ctx, product, ref)
	if err != nil {
		return Resolution{}, err
	}
	if variant == nil && strings.TrimSpace(ref.VariantRef) != "" {
		// Explicit variant references must belong to the named parent;
		// mismatches resolve as not-found rather than substituting.
		return Resolution{Result: ResolutionNotFound, Ref: ref}, nil
	}

	candidate := buildCandidate(product, variant)
	if candidate.AvailableQty < qty {
		return Resolution{Result: ResolutionOutOfStock, Ref: ref}, nil
	}
	return Resolution{Result: ResolutionOK, Candidate: &candidate, Ref: ref}, nil
}

func (s *service) DecrementStock(ctx context.Context, tx *gorm.DB, candidate LineItemCandidate, qty int) error {
	if qty <= 0 {
		return nil
	}
	repo := s.repo
	if tx != nil {
		repo = s.repo.WithTx(tx)
	}
	if err := repo.DecrementStock(ctx, candidate.ProductID, candidate.VariantID, qty); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
	}
	return nil
}

// pickVariant returns the variant an ItemRef narrows to, or nil when the ref
// resolves to the parent product. An explicit variant ref that does not
// belong to the parent also returns nil; the caller rejects it.
func (s *service) pickVariant(ctx context.Context, product *models.Product, ref ItemRef) (*models.ProductVariant, error) {
	if raw := strings.TrimSpace(ref.VariantRef); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return s.matchVariantBySKU(product, raw), nil
		}
		variant, err := s.repo.FindVariant(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, nil
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load variant")
		}
		if variant.ProductID != product.ID {
			return nil, nil
		}
		return variant, nil
	}

	if len(ref.Attributes) == 0 {
		return nil, nil
	}
	return matchVariantByAttributes(product.Variants, ref.Attributes), nil
}

func (s *service) matchVariantBySKU(product *models.Product, sku string) *models.ProductVariant {
	for i := range product.Variants {
		if strings.EqualFold(product.Variants[i].SKU, sku) {
			return &product.Variants[i]
		}
	}
	return nil
}

// matchVariantByAttributes finds the variant whose attribute set satisfies
// every requested axis. An empty variant value is a wildcard matching any
// requested value; concrete values compare slug-insensitively. Among full
// matches the one with the most concrete (non-wildcard) hits wins, so an
// exact match always beats a wildcard match.
func matchVariantByAttributes(variants []models.ProductVariant, requested map[string]string) *models.ProductVariant {
	var best *models.ProductVariant
	bestScore := -1
	for i := range variants {
		score, ok := attributeMatchScore(variants[i].Attributes, requested)
		if ok && score > bestScore {
			best = &variants[i]
			bestScore = score
		}
	}
	return best
}

func attributeMatchScore(have, requested map[string]string) (int, bool) {
	score := 0
	for axis, want := range requested {
		got, present := lookupAxis(have, axis)
		if !present {
			return 0, false
		}
		if got == "" {
			continue
		}
		if slug(got) != slug(want) {
			return 0, false
		}
		score++
	}
	return score, true
}

func lookupAxis(attrs map[string]string, axis string) (string, bool) {
	if v, ok := attrs[axis]; ok {
		return v, true
	}
	want := slug(axis)
	for k, v := range attrs {
		if slug(k) == want {
			return v, true
		}
	}
	return "", false
}

func slug(value string) string {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	return strings.ReplaceAll(trimmed, " ", "-")
}

func buildCandidate(product *models.Product, variant *models.ProductVariant) LineItemCandidate {
	candidate := LineItemCandidate{
		ProductID:      product.ID,
		Name:           product.Title,
		UnitPriceCents: product.PriceCents,
		AvailableQty:   product.StockQty,
	}
	if variant != nil {
		id := variant.ID
		candidate.VariantID = &id
		candidate.AvailableQty = variant.StockQty
		if variant.PriceCents != nil {
			candidate.UnitPriceCents = *variant.PriceCents
		}
	}
	return candidate
}
