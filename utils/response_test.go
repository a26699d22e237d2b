package utils

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOKEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	OK(rec, map[string]string{"hello": "world"})

	if rec.Code != 200 {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q, want application/json", ct)
	}
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !body.Success {
		t.Error("success = false, want true")
	}
	if body.Pagination != nil {
		t.Error("pagination should be omitted on plain OK")
	}
}

func TestErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	NotFound(rec, "manga not found")

	if rec.Code != 404 {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Success {
		t.Error("success = true, want false")
	}
	if body.Message != "manga not found" {
		t.Errorf("message = %q", body.Message)
	}
}

func TestOKPageIncludesPagination(t *testing.T) {
	rec := httptest.NewRecorder()
	OKPage(rec, []int{1, 2, 3}, Pagination{Page: 2, Limit: 3, Total: 10, TotalPages: 4})

	var body Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if body.Pagination == nil {
		t.Fatal("pagination missing")
	}
	if body.Pagination.TotalPages != 4 {
		t.Errorf("totalPages = %d, want 4", body.Pagination.TotalPages)
	}
}

func TestClientIP(t *testing.T) {
	testCases := []struct {
		in   string
		want string
	}{
		{"203.0.113.7:51001", "203.0.113.7"},
		{"203.0.113.7", "203.0.113.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"2001:db8::1", "2001:db8::1"},
		{"", ""},
	}

	for _, tc := range testCases {
		if got := ClientIP(tc.in); got != tc.want {
			t.Errorf("ClientIP(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestHashIP(t *testing.T) {
	a := HashIP("203.0.113.7")
	b := HashIP("203.0.113.7")
	c := HashIP("203.0.113.8")

	if a != b {
		t.Error("same IP should hash to the same value")
	}
	if a == c {
		t.Error("different IPs should not collide")
	}
	if len(a) != 16 {
		t.Errorf("hash length = %d, want 16 hex chars", len(a))
	}
}

func TestCountCache(t *testing.T) {
	cc := NewCountCache(time.Minute)

	if _, ok := cc.Get("k"); ok {
		t.Fatal("empty cache should miss")
	}
	cc.Set("k", 42)
	if n, ok := cc.Get("k"); !ok || n != 42 {
		t.Fatalf("Get = %d, %v; want 42, true", n, ok)
	}
	cc.Flush()
	if _, ok := cc.Get("k"); ok {
		t.Fatal("flushed cache should miss")
	}
}
