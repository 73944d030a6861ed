package models

import (
	"strings"
	"time"
)

// SlotKey addresses one shuttle departure.
type SlotKey struct {
	Date      string `json:"date" binding:"required"`      // 2006-01-02
	Route     string `json:"route" binding:"required"`     // timetable route name
	Direction string `json:"direction" binding:"required"` // one of the route's directions
	Time      string `json:"time" binding:"required"`      // 15:04
}

// ID is the document id of the slot's reservation row.
func (k SlotKey) ID() string {
	return strings.Join([]string{k.Date, k.Route, k.Direction, k.Time}, "|")
}

// ShuttleReservation is created lazily by the first reservation of a slot.
// Rows are never deleted; yesterday's slots simply stop being addressed.
type ShuttleReservation struct {
	ID        string          `gorm:"primaryKey;size:160" json:"id"`
	Date      string          `gorm:"size:10;not null;index" json:"date"`
	Route     string          `gorm:"size:50;not null" json:"route"`
	Direction string          `gorm:"size:50;not null" json:"direction"`
	Time      string          `gorm:"size:5;not null" json:"time"`
	Members   []ShuttleMember `gorm:"foreignKey:ReservationID" json:"-"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (r *ShuttleReservation) Key() SlotKey {
	return SlotKey{Date: r.Date, Route: r.Route, Direction: r.Direction, Time: r.Time}
}

// ShuttleMember is one rider in a slot's member set.
type ShuttleMember struct {
	ReservationID string    `gorm:"primaryKey;size:160" json:"reservation_id"`
	UserID        string    `gorm:"primaryKey;size:64;index" json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
}
