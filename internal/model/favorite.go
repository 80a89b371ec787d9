package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// MaxNoteLength is the server-side cap on a favorite note.
const MaxNoteLength = 100

// MaxFavorites is how many favorites the server keeps per user.
const MaxFavorites = 50

// Sort orders the favorites list by creation time.
type Sort string

const (
	SortNewest Sort = "created_at_desc"
	SortOldest Sort = "created_at_asc"
)

func (s Sort) Valid() bool {
	return s == SortNewest || s == SortOldest
}

func (s Sort) Label() string {
	if s == SortOldest {
		return "Oldest first"
	}
	return "Newest first"
}

// Favorite is a saved destination country with an optional note.
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	Country   string    `json:"country"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

// FavoritesPage is one page of GET /api/favorites.
type FavoritesPage struct {
	Items    []Favorite `json:"items"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
	Total    int64      `json:"total"`
}

// DefaultPageSize is the favorites page size the client asks for.
const DefaultPageSize = 10

// FavoritesQuery is the list state the user controls: search, sort, pager.
type FavoritesQuery struct {
	Page     int
	PageSize int
	Sort     Sort
	Country  string
}

// NewFavoritesQuery returns the initial query: first page, newest first.
func NewFavoritesQuery(pageSize int) FavoritesQuery {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return FavoritesQuery{Page: 1, PageSize: pageSize, Sort: SortNewest}
}

// WithSort changes the order and goes back to page 1.
func (q FavoritesQuery) WithSort(s Sort) FavoritesQuery {
	if !s.Valid() {
		s = SortNewest
	}
	q.Sort = s
	q.Page = 1
	return q
}

// WithCountry changes the country filter and goes back to page 1.
func (q FavoritesQuery) WithCountry(country string) FavoritesQuery {
	q.Country = strings.TrimSpace(country)
	q.Page = 1
	return q
}

// WithPage jumps to page n, never below page 1.
func (q FavoritesQuery) WithPage(n int) FavoritesQuery {
	q.Page = max(n, 1)
	return q
}

func (q FavoritesQuery) Next() FavoritesQuery {
	q.Page++
	return q
}

// Prev moves one page back, never below page 1.
func (q FavoritesQuery) Prev() FavoritesQuery {
	if q.Page > 1 {
		q.Page--
	}
	return q
}
