package model

import "testing"

func TestFavoritesQueryResetsPage(t *testing.T) {
	q := NewFavoritesQuery(0)
	if q.Page != 1 || q.PageSize != DefaultPageSize || q.Sort != SortNewest {
		t.Fatalf("unexpected initial query %+v", q)
	}

	q = q.Next().Next()
	if q.Page != 3 {
		t.Fatalf("expected page 3, got %d", q.Page)
	}
	if got := q.WithSort(SortOldest); got.Page != 1 || got.Sort != SortOldest {
		t.Fatalf("WithSort must reset to page 1, got %+v", got)
	}
	if got := q.WithCountry("  Spain "); got.Page != 1 || got.Country != "Spain" {
		t.Fatalf("WithCountry must trim and reset to page 1, got %+v", got)
	}
	if got := q.WithSort("bogus"); got.Sort != SortNewest {
		t.Fatalf("unknown sort must fall back to newest, got %q", got.Sort)
	}
}

func TestFavoritesQueryPrevStopsAtOne(t *testing.T) {
	q := NewFavoritesQuery(5)
	if q.Prev().Page != 1 {
		t.Fatalf("Prev on page 1 must stay on page 1")
	}
	if q.Next().Prev().Page != 1 {
		t.Fatalf("Next then Prev must return to page 1")
	}
}

func TestFavoritesQueryWithPage(t *testing.T) {
	q := NewFavoritesQuery(5).WithCountry("an")
	if got := q.WithPage(4); got.Page != 4 || got.Country != "an" {
		t.Fatalf("WithPage(4) = %+v", got)
	}
	if got := q.WithPage(0); got.Page != 1 {
		t.Fatalf("WithPage(0) must clamp to 1, got %d", got.Page)
	}
}
