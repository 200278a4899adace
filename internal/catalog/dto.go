package catalog

import "github.com/google/uuid"

// ItemRef identifies a catalog entry in a create request: a product id or
// SKU, optionally narrowed to a variant by explicit id or attribute selector.
type ItemRef struct {
	ProductRef string
	VariantRef string
	Attributes map[string]string
}

// ResolutionResult classifies the outcome of resolving an ItemRef.
type ResolutionResult string

const (
	ResolutionOK         ResolutionResult = "ok"
	ResolutionNotFound   ResolutionResult = "not_found"
	ResolutionOutOfStock ResolutionResult = "out_of_stock"
)

// LineItemCandidate is a priced, stock-checked catalog hit ready to become a
// line item. The unit price is the value snapshotted onto the order.
type LineItemCandidate struct {
	ProductID      uuid.UUID
	VariantID      *uuid.UUID
	Name           string
	UnitPriceCents int
	AvailableQty   int
}

// Resolution is the full outcome for one ItemRef. Candidate is set only when
// Result is ResolutionOK; out-of-stock and not-found carry the requested ref
// back so callers can build item-scoped messages.
type Resolution struct {
	Result    ResolutionResult
	Candidate *LineItemCandidate
	Ref       ItemRef
}
