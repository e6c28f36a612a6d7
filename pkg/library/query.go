package library

import (
	"net/url"
	"strconv"
)

// ListParams are the optional parameters of a book list call.
// Zero values are treated as absent and left out of the query string.
type ListParams struct {
	Page  int
	Limit int
	Title string
}

// NewListParams creates list parameters for a page.
func NewListParams(page, limit int) *ListParams {
	return &ListParams{Page: page, Limit: limit}
}

// WithTitle sets the title filter.
func (p *ListParams) WithTitle(title string) *ListParams {
	p.Title = title

	return p
}

// ToValues converts the parameters to URL values.
func (p *ListParams) ToValues() url.Values {
	values := url.Values{}
	if p == nil {
		return values
	}

	if p.Page > 0 {
		values.Set("page", strconv.Itoa(p.Page))
	}

	if p.Limit > 0 {
		values.Set("limit", strconv.Itoa(p.Limit))
	}

	if p.Title != "" {
		values.Set("title", p.Title)
	}

	return values
}
