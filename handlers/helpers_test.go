package handlers

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParsePagination(t *testing.T) {
	testCases := []struct {
		name      string
		url       string
		wantPage  int
		wantLimit int
	}{
		{"defaults", "/api/manga", 1, 20},
		{"explicit", "/api/manga?page=3&limit=50", 3, 50},
		{"limit clamped", "/api/manga?limit=5000", 1, 100},
		{"zero page ignored", "/api/manga?page=0", 1, 20},
		{"negative ignored", "/api/manga?page=-2&limit=-5", 1, 20},
		{"garbage ignored", "/api/manga?page=abc&limit=xyz", 1, 20},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", tc.url, nil)
			page, limit := ParsePagination(r)
			if page != tc.wantPage || limit != tc.wantLimit {
				t.Errorf("got page=%d limit=%d, want page=%d limit=%d",
					page, limit, tc.wantPage, tc.wantLimit)
			}
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Email string `json:"email" validate:"required,email"`
		Name  string `json:"name" validate:"required"`
	}

	testCases := []struct {
		name    string
		payload string
		wantMsg string
		wantOK  bool
	}{
		{"valid", `{"email":"a@b.io","name":"a"}`, "", true},
		{"malformed", `{"email":`, "invalid json body", false},
		{
			"field errors joined",
			`{"email":"not-an-email"}`,
			"Email is invalid (email), Name is invalid (required)",
			false,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest("POST", "/api/auth/signup", strings.NewReader(tc.payload))
			var dst body
			msg, ok := decodeJSON(r, &dst)
			if ok != tc.wantOK || msg != tc.wantMsg {
				t.Errorf("got (%q, %v), want (%q, %v)", msg, ok, tc.wantMsg, tc.wantOK)
			}
		})
	}
}

func TestTotalPages(t *testing.T) {
	testCases := []struct {
		total int64
		limit int
		want  int64
	}{
		{0, 20, 0},
		{1, 20, 1},
		{20, 20, 1},
		{21, 20, 2},
		{100, 20, 5},
		{5, 0, 0},
	}

	for _, tc := range testCases {
		if got := TotalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("TotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
