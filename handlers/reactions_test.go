package handlers

import (
	"net/http/httptest"
	"testing"
)

func TestReactionCallerAnonymous(t *testing.T) {
	t.Run("identity survives reconnects", func(t *testing.T) {
		r1 := httptest.NewRequest("POST", "/api/reactions", nil)
		r1.RemoteAddr = "203.0.113.7:51001"
		r2 := httptest.NewRequest("POST", "/api/reactions", nil)
		r2.RemoteAddr = "203.0.113.7:51002"

		u1, h1 := reactionCaller(r1)
		u2, h2 := reactionCaller(r2)
		if u1 != nil || u2 != nil {
			t.Fatal("anonymous requests must not resolve a user id")
		}
		if h1 == "" {
			t.Fatal("anonymous caller must get an IP hash")
		}
		if h1 != h2 {
			t.Errorf("same IP on new connections got different hashes: %q vs %q", h1, h2)
		}
	})

	t.Run("different clients stay distinct", func(t *testing.T) {
		r1 := httptest.NewRequest("POST", "/api/reactions", nil)
		r1.RemoteAddr = "203.0.113.7:51001"
		r2 := httptest.NewRequest("POST", "/api/reactions", nil)
		r2.RemoteAddr = "203.0.113.8:51001"

		_, h1 := reactionCaller(r1)
		_, h2 := reactionCaller(r2)
		if h1 == h2 {
			t.Error("different IPs must not share a reaction identity")
		}
	})
}
