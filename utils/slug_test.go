package utils

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestSlugify(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"One Piece", "one-piece"},
		{"  Solo Leveling  ", "solo-leveling"},
		{"Dr. STONE", "dr-stone"},
		{"86--EIGHTY-SIX", "86-eighty-six"},
		{"Re:Zero (Season 2)", "re-zero-season-2"},
		{"---", ""},
		{"", ""},
		{"Tower of God!!!", "tower-of-god"},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			if got := Slugify(tc.in); got != tc.want {
				t.Errorf("Slugify(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanStrings(t *testing.T) {
	got := CleanStrings([]string{" action ", "", "  ", "drama", "romance "})
	want := []string{"action", "drama", "romance"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CleanStrings mismatch (-want +got):\n%s", diff)
	}
}

func TestCleanStringsEmpty(t *testing.T) {
	if got := CleanStrings(nil); len(got) != 0 {
		t.Errorf("CleanStrings(nil) = %v, want empty", got)
	}
}
