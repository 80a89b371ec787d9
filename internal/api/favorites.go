package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/Makepad-fr/destinai/internal/model"
)

// ListFavorites fetches one page of the current user's favorites.
func (c *Client) ListFavorites(ctx context.Context, q model.FavoritesQuery) (model.FavoritesPage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(q.Page))
	params.Set("page_size", strconv.Itoa(q.PageSize))
	params.Set("sort", string(q.Sort))
	if q.Country != "" {
		params.Set("country", q.Country)
	}
	var page model.FavoritesPage
	if _, err := c.do(ctx, request{method: http.MethodGet, path: "/api/favorites", query: params}, &page); err != nil {
		return model.FavoritesPage{}, err
	}
	if page.Items == nil {
		page.Items = []model.Favorite{}
	}
	if page.Page <= 0 {
		page.Page = q.Page
	}
	if page.PageSize <= 0 {
		page.PageSize = q.PageSize
	}
	return page, nil
}

// UpdateNote replaces the note of a favorite. The note is trimmed first.
func (c *Client) UpdateNote(ctx context.Context, id uuid.UUID, note string) (model.Favorite, error) {
	note = strings.TrimSpace(note)
	if utf8.RuneCountInString(note) > model.MaxNoteLength {
		return model.Favorite{}, fmt.Errorf("note longer than %d characters: %w", model.MaxNoteLength, ErrInvalidInput)
	}
	var fav model.Favorite
	r := request{
		method: http.MethodPatch,
		path:   "/api/favorites/" + id.String(),
		body:   map[string]string{"note": note},
	}
	if _, err := c.do(ctx, r, &fav); err != nil {
		return model.Favorite{}, err
	}
	return fav, nil
}

func (c *Client) DeleteFavorite(ctx context.Context, id uuid.UUID) error {
	_, err := c.do(ctx, request{method: http.MethodDelete, path: "/api/favorites/" + id.String()}, nil)
	return err
}

// CreateFavorite saves a recommended country. A 400 carries the reason the
// server refused (limit reached, already saved) in the *Error body.
func (c *Client) CreateFavorite(ctx context.Context, country string) (model.Favorite, error) {
	var fav model.Favorite
	r := request{
		method: http.MethodPost,
		path:   "/api/favorites",
		body:   map[string]string{"country": country},
	}
	if _, err := c.do(ctx, r, &fav); err != nil {
		return model.Favorite{}, err
	}
	return fav, nil
}
