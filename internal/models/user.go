package models

import (
	"time"
)

// BaseTrustScore is the trust score of a user who has never been adjusted.
const BaseTrustScore = 50

type User struct {
	ID           string     `gorm:"primaryKey;size:64" json:"id"` // Issued by the auth platform
	Nickname     string     `gorm:"size:50" json:"nickname"`
	Role         string     `gorm:"size:20;default:'user';not null" json:"role"` // user, admin
	TrustScore   *int       `json:"trust_score"`                                 // nil until the first adjustment
	ReportCount  int        `gorm:"not null;default:0" json:"report_count"`
	IsSuspended  bool       `gorm:"not null;default:false;index" json:"is_suspended"`
	SuspendedAt  *time.Time `json:"suspended_at"`                  // stamped once, on the first suspension
	LastTaxiDate string     `gorm:"size:10" json:"last_taxi_date"` // last day a taxi reward landed
	BlockedUsers []string   `gorm:"serializer:json;type:text" json:"blocked_users"`
	Wishlist     []string   `gorm:"serializer:json;type:text" json:"wishlist"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// EffectiveTrustScore resolves an unset score to the base score.
func (u *User) EffectiveTrustScore() int {
	if u.TrustScore == nil {
		return BaseTrustScore
	}
	return *u.TrustScore
}

// HasBlocked reports whether userID is on this user's block list.
func (u *User) HasBlocked(userID string) bool {
	for _, id := range u.BlockedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// SuspensionState is the tagged account state: Active, or Suspended since a point in time.
type SuspensionState struct {
	Suspended bool
	Since     time.Time
}

var Active = SuspensionState{}

// Suspension returns the account state. Suspension is one-way.
func (u *User) Suspension() SuspensionState {
	if !u.IsSuspended {
		return Active
	}
	state := SuspensionState{Suspended: true}
	if u.SuspendedAt != nil {
		state.Since = *u.SuspendedAt
	}
	return state
}
