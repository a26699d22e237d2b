package models

import (
	"testing"
	"time"
)

func TestSessionExpired(t *testing.T) {
	now := time.Now()

	testCases := []struct {
		name    string
		session Session
		want    bool
	}{
		{"live", Session{IsActive: true, ExpiresAt: now.Add(time.Hour)}, false},
		{"past expiry", Session{IsActive: true, ExpiresAt: now.Add(-time.Minute)}, true},
		{"deactivated", Session{IsActive: false, ExpiresAt: now.Add(time.Hour)}, true},
		{"deactivated and past", Session{IsActive: false, ExpiresAt: now.Add(-time.Hour)}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.session.Expired(now); got != tc.want {
				t.Errorf("Expired = %v, want %v", got, tc.want)
			}
		})
	}
}
