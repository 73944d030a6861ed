package models

import (
	"time"
)

type NotificationType string

const (
	NotificationTypeSystem     NotificationType = "system"
	NotificationTypeReport     NotificationType = "report"     // 신고 접수 (관리자)
	NotificationTypeSuspension NotificationType = "suspension" // 계정 정지
)

type Notification struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	UserID    string           `gorm:"size:64;not null;index" json:"user_id"` // Receiver
	ActorID   *string          `gorm:"size:64;index" json:"actor_id"`         // Sender
	Type      NotificationType `gorm:"type:varchar(20);not null" json:"type"`
	Reason    string           `gorm:"type:text" json:"reason"`
	IsRead    bool             `gorm:"default:false;index" json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}
