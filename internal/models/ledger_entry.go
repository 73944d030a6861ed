package models

import (
	"time"
)

// LedgerEntry records one positive reputation grant. Entries are never updated or deleted.
type LedgerEntry struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	TargetUserID string       `gorm:"size:64;not null;index:idx_ledger_target_created,priority:1;index:idx_ledger_pair,priority:1" json:"target_user_id"`
	SourceUserID string       `gorm:"size:64;not null;index:idx_ledger_pair,priority:2" json:"source_user_id"`
	ActivityType ActivityType `gorm:"size:16;not null" json:"activity_type"`
	Points       int          `gorm:"not null" json:"points"`
	GrantKey     string       `gorm:"size:200;not null;uniqueIndex:idx_ledger_grant_key" json:"-"` // target|source|week bucket
	CreatedAt    time.Time    `gorm:"not null;index:idx_ledger_target_created,priority:2" json:"created_at"`
}
