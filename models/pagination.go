// ABOUTME: Pagination envelope shared by every list endpoint
// ABOUTME: Provides page labels and previous/next availability for list views
package models

import "fmt"

type Pagination struct {
	Page       int  `json:"page"`
	Limit      int  `json:"limit"`
	Total      int  `json:"total"`
	TotalPages int  `json:"totalPages"`
	HasNext    bool `json:"hasNext"`
	HasPrev    bool `json:"hasPrev"`
}

// Page is one page of a list endpoint.
type Page[T any] struct {
	Items      []T        `json:"items"`
	Pagination Pagination `json:"pagination"`
}

// NewPagination builds an envelope for the given page, limit and total.
func NewPagination(page, limit, total int) Pagination {
	p := Pagination{Page: page, Limit: limit, Total: total}
	p.Normalize()
	p.HasNext = p.Page < p.TotalPages
	p.HasPrev = p.Page > 1
	return p
}

// Normalize fills TotalPages when the backend omitted it.
func (p *Pagination) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.TotalPages == 0 && p.Limit > 0 {
		p.TotalPages = (p.Total + p.Limit - 1) / p.Limit
	}
}

// Label renders "Page X of Y". An empty result set still reads "Page 1 of 1".
func (p Pagination) Label() string {
	pages := p.TotalPages
	if pages < 1 {
		pages = 1
	}
	return fmt.Sprintf("Page %d of %d", p.Page, pages)
}

// CanPrev is false only on the first page.
func (p Pagination) CanPrev() bool {
	return p.Page > 1
}

func (p Pagination) CanNext() bool {
	return p.HasNext
}
