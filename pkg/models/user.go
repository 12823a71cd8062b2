package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User roles
const (
	RoleAdmin = "admin"
	RoleAgent = "agent"
)

// GoogleCalendar holds a user's calendar connection and OAuth tokens.
// Mutated only by the calendar bridge.
type GoogleCalendar struct {
	GoogleEmail  string    `json:"google_email" bson:"google_email"`
	GoogleName   string    `json:"google_name,omitempty" bson:"google_name,omitempty"`
	AccessToken  string    `json:"-" bson:"access_token"`
	RefreshToken string    `json:"-" bson:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at" bson:"expires_at"`
	ConnectedAt  time.Time `json:"connected_at" bson:"connected_at"`
}

// User is a tenant-scoped account. Email is unique within a tenant.
type User struct {
	ID            bson.ObjectID   `json:"id,omitempty" bson:"_id,omitempty"`
	Name          string          `json:"name" bson:"name"`
	Email         string          `json:"email" bson:"email"`
	Role          string          `json:"role" bson:"role"`
	PasswordHash  string          `json:"-" bson:"password_hash"`
	Status        string          `json:"status,omitempty" bson:"status,omitempty"`
	IsOnline      bool            `json:"is_online" bson:"is_online"`
	IsVerified    bool            `json:"is_verified" bson:"is_verified"`
	Avatar        string          `json:"avatar,omitempty" bson:"avatar,omitempty"`
	Favorites     []bson.ObjectID `json:"favorites,omitempty" bson:"favorites,omitempty"`
	LastHeartbeat time.Time       `json:"last_heartbeat,omitempty" bson:"last_heartbeat,omitempty"`
	GoogleCal     *GoogleCalendar `json:"google_calendar,omitempty" bson:"google_calendar,omitempty"`
	CreatedAt     time.Time       `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" bson:"updated_at"`
}

// IsAdmin reports whether the user has the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Scope returns the ownership scope this user queries leads under. Admins
// get AdminScope, which store queries treat as unrestricted.
func (u *User) Scope() OwnerScope {
	if u.IsAdmin() {
		return AdminScope
	}
	return OwnerScope{Email: u.Email}
}
