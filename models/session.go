package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionTTL is how long a session (and its bearer token) stays valid.
const SessionTTL = 30 * 24 * time.Hour

// Session is a persisted login. The sessions collection carries a TTL
// index on expiresAt, so mongo removes expired documents on its own;
// verification still checks expiresAt explicitly to cover the window
// before the TTL sweep runs.
type Session struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID       primitive.ObjectID `bson:"userId" json:"userId"`
	Token        string             `bson:"token" json:"-"`
	UserAgent    string             `bson:"userAgent,omitempty" json:"userAgent,omitempty"`
	IP           string             `bson:"ip,omitempty" json:"ip,omitempty"`
	IsActive     bool               `bson:"isActive" json:"isActive"`
	LastActivity time.Time          `bson:"lastActivity" json:"lastActivity"`
	ExpiresAt    time.Time          `bson:"expiresAt" json:"expiresAt"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// Expired reports whether the session is past its expiry or deactivated.
func (s *Session) Expired(now time.Time) bool {
	return !s.IsActive || now.After(s.ExpiresAt)
}
