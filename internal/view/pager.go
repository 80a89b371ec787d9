package view

import "fmt"

// TotalPages is max(1, ceil(total/pageSize)).
func TotalPages(total int64, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	n := (total + int64(pageSize) - 1) / int64(pageSize)
	if n < 1 {
		return 1
	}
	return int(n)
}

// Pager is the rendered position within a paginated list. Page is 1-based.
type Pager struct {
	Page       int
	TotalPages int
	Empty      bool
}

// NewPager derives the pager for a fetched page. requested is used when the
// server does not echo the page number.
func NewPager(page int, requested int, total int64, pageSize int, items int) Pager {
	if page <= 0 {
		page = requested
	}
	return Pager{Page: page, TotalPages: TotalPages(total, pageSize), Empty: items == 0}
}

func (p Pager) CanPrev() bool { return !p.Empty && p.Page > 1 }

func (p Pager) CanNext() bool { return !p.Empty && p.Page < p.TotalPages }

// Label is "Page X of Y", or empty for an empty list.
func (p Pager) Label() string {
	if p.Empty {
		return ""
	}
	return fmt.Sprintf("Page %d of %d", p.Page, p.TotalPages)
}
