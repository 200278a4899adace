package pagination

import "strconv"

const (
	// DefaultPerPage is the standard page size when per_page is not provided.
	DefaultPerPage = 25
	// MaxPerPage caps how many rows any listing query can request.
	MaxPerPage = 100
)

// Params holds page/per_page pagination inputs from controllers.
type Params struct {
	Page    int
	PerPage int
}

// ParseQuery builds Params from raw query string values, tolerating absent or
// malformed input.
func ParseQuery(page, perPage string) Params {
	p := Params{}
	if n, err := strconv.Atoi(page); err == nil {
		p.Page = n
	}
	if n, err := strconv.Atoi(perPage); err == nil {
		p.PerPage = n
	}
	return p.Normalize()
}

// Normalize enforces the configured default and maximum limits.
func (p Params) Normalize() Params {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = DefaultPerPage
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the normalized page.
func (p Params) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.PerPage
}

// Meta describes one page of a listing response.
type Meta struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalCount int64 `json:"total_count"`
}

// NewMeta builds response metadata from normalized params and a total count.
func NewMeta(p Params, total int64) Meta {
	p = p.Normalize()
	return Meta{Page: p.Page, PerPage: p.PerPage, TotalCount: total}
}
