package models

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestChapterSlug(t *testing.T) {
	id, err := primitive.ObjectIDFromHex("65f0c2a1b4e8d93f5a7c1234")
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		number float64
		want   string
	}{
		{1, "65f0c2a1b4e8d93f5a7c1234-chapter-1"},
		{12, "65f0c2a1b4e8d93f5a7c1234-chapter-12"},
		{12.5, "65f0c2a1b4e8d93f5a7c1234-chapter-12.5"},
		{100.25, "65f0c2a1b4e8d93f5a7c1234-chapter-100.25"},
	}

	for _, tc := range testCases {
		if got := ChapterSlug(id, tc.number); got != tc.want {
			t.Errorf("ChapterSlug(%v) = %q, want %q", tc.number, got, tc.want)
		}
	}
}
