package models

import "testing"

func TestNormalizePageLimit(t *testing.T) {
	cases := []struct {
		page, limit       int
		expPage, expLimit int
	}{
		{0, 0, 1, DefaultPageLimit},
		{-3, -10, 1, DefaultPageLimit},
		{1, 250, 1, MaxPageLimit},
		{4, 25, 4, 25},
	}
	for _, tc := range cases {
		page, limit := NormalizePageLimit(tc.page, tc.limit)
		if page != tc.expPage || limit != tc.expLimit {
			t.Fatalf("NormalizePageLimit(%d, %d) = (%d, %d), expected (%d, %d)",
				tc.page, tc.limit, page, limit, tc.expPage, tc.expLimit)
		}
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 95)
	if p.Pages != 10 {
		t.Fatalf("expected 10 pages for 95 rows at limit 10, got %d", p.Pages)
	}
	if !p.HasNext || !p.HasPrev {
		t.Fatalf("page 2 of 10 should have both neighbours, got hasNext=%v hasPrev=%v", p.HasNext, p.HasPrev)
	}

	last := NewPagination(10, 10, 95)
	if last.HasNext {
		t.Fatalf("last page should not have a next page")
	}
	if !last.HasPrev {
		t.Fatalf("last page should have a previous page")
	}

	empty := NewPagination(1, 10, 0)
	if empty.Pages != 0 || empty.HasNext || empty.HasPrev {
		t.Fatalf("empty result should have no pages or neighbours, got %+v", empty)
	}
}

func TestResolveSort(t *testing.T) {
	allowed := map[string]string{
		"name":      "clients.name",
		"createdAt": "clients.created_at",
	}
	cases := []struct {
		sortBy, sortOrder string
		expected          string
	}{
		{"name", "asc", "clients.name asc"},
		{"name", "ASC", "clients.name asc"},
		{"createdAt", "desc", "clients.created_at desc"},
		{"name", "sideways", "clients.name desc"},
		{"", "", "clients.created_at desc"},
		{"drop table", "asc", "clients.created_at desc"},
	}
	for _, tc := range cases {
		got := ResolveSort(tc.sortBy, tc.sortOrder, allowed, "createdAt", "desc")
		if got != tc.expected {
			t.Fatalf("ResolveSort(%q, %q) = %q, expected %q", tc.sortBy, tc.sortOrder, got, tc.expected)
		}
	}
}
