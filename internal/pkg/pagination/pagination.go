// Package pagination turns page/limit query values into row windows and
// describes the returned slice to API clients.
package pagination

import "strconv"

const (
	// DefaultLimit is the page size used when none (or an invalid one) is given
	DefaultLimit = 20

	// MaxLimit caps the page size
	MaxLimit = 100

	// MaxPage caps the page number; (MaxPage-1)*MaxLimit stays well inside int
	MaxPage = 1_000_000
)

// Page is the row window a listing query reads: rows [Offset, Offset+Limit)
type Page struct {
	Offset int
	Limit  int
}

// Request is a page request after clamping
type Request struct {
	Number int `json:"page"`
	Limit  int `json:"limit"`
}

// Parse reads raw page and limit values. Missing, malformed or
// non-positive values fall back to page 1 and DefaultLimit; oversized
// values are clamped to MaxPage and MaxLimit.
func Parse(page, limit string) Request {
	r := Request{Number: 1, Limit: DefaultLimit}
	if n, err := strconv.Atoi(page); err == nil && n > 0 {
		r.Number = min(n, MaxPage)
	}
	if n, err := strconv.Atoi(limit); err == nil && n > 0 {
		r.Limit = min(n, MaxLimit)
	}
	return r
}

// Window returns the rows covered by r
func (r Request) Window() Page {
	return Page{Offset: (r.Number - 1) * r.Limit, Limit: r.Limit}
}

// Meta describes where a page sits in the full result
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// Meta builds the metadata for total matching rows
func (r Request) Meta(total int64) *Meta {
	limit := int64(r.Limit)
	if limit <= 0 {
		limit = DefaultLimit
	}
	pages := (total + limit - 1) / limit
	return &Meta{
		Page:       r.Number,
		Limit:      int(limit),
		Total:      total,
		TotalPages: pages,
		HasNext:    int64(r.Number) < pages,
		HasPrev:    r.Number > 1,
	}
}

// Response is a page of items with its metadata
type Response struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta"`
}

// NewResponse wraps items returned for r out of total
func NewResponse(data interface{}, r Request, total int64) *Response {
	return &Response{Data: data, Meta: r.Meta(total)}
}
