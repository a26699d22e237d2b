package handlers

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/inkreader/backend/models"
	"github.com/inkreader/backend/store"
)

func TestMangaRequestNormalize(t *testing.T) {
	valid := func() MangaRequest {
		return MangaRequest{
			Title:       " Solo Leveling ",
			Description: "A hunter grows stronger.",
			Authors:     []string{" Chugong ", ""},
			Genres:      []string{"action", "fantasy"},
		}
	}

	t.Run("defaults and trimming", func(t *testing.T) {
		req := valid()
		if msg := req.normalize(); msg != "" {
			t.Fatalf("normalize returned %q", msg)
		}
		if req.Title != "Solo Leveling" {
			t.Errorf("title = %q", req.Title)
		}
		if diff := cmp.Diff([]string{"Chugong"}, req.Authors); diff != "" {
			t.Errorf("authors (-want +got):\n%s", diff)
		}
		if req.Status != models.StatusOngoing {
			t.Errorf("status = %q, want default %q", req.Status, models.StatusOngoing)
		}
		if req.Type != models.TypeManga {
			t.Errorf("type = %q, want default %q", req.Type, models.TypeManga)
		}
	})

	t.Run("unknown genre rejected", func(t *testing.T) {
		req := valid()
		req.Genres = []string{"action", "isekai-golf"}
		if msg := req.normalize(); msg == "" {
			t.Error("expected error for unknown genre")
		}
	})

	t.Run("whitespace-only authors rejected", func(t *testing.T) {
		req := valid()
		req.Authors = []string{"  ", ""}
		if msg := req.normalize(); msg == "" {
			t.Error("expected error for empty authors")
		}
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		req := valid()
		req.Status = "paused"
		if msg := req.normalize(); msg == "" {
			t.Error("expected error for invalid status")
		}
	})
}

func TestCountCacheKey(t *testing.T) {
	a := countCacheKey(store.MangaFilter{Search: "one piece", Genre: "action"})
	b := countCacheKey(store.MangaFilter{Search: "one piece", Genre: "action"})
	c := countCacheKey(store.MangaFilter{Search: "one piece", Genre: "action", IncludePrivate: true})
	if a != b {
		t.Error("equal filters should share a cache key")
	}
	if a == c {
		t.Error("admin view must not share the public cache key")
	}
}

func TestNormalizePages(t *testing.T) {
	pages := normalizePages([]models.Page{
		{ImageURL: "a.jpg"},
		{ImageURL: "b.jpg", TextRegions: []models.TextRegion{
			{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.1, Text: "...",
				Translations: map[string]string{"en": "...!"}},
		}},
		{Number: 7, ImageURL: "c.jpg"},
	})
	if pages[0].Number != 1 || pages[1].Number != 2 {
		t.Errorf("auto numbering = %d, %d; want 1, 2", pages[0].Number, pages[1].Number)
	}
	if pages[2].Number != 7 {
		t.Errorf("explicit number overwritten: %d", pages[2].Number)
	}
	if len(pages[1].TextRegions) != 1 || pages[1].TextRegions[0].Translations["en"] != "...!" {
		t.Errorf("text regions not preserved: %+v", pages[1].TextRegions)
	}
}
