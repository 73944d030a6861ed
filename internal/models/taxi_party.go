package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TaxiParty is a carpool group. Its member set always contains the creator.
type TaxiParty struct {
	ID              string            `gorm:"primaryKey;size:36" json:"id"`
	CreatorID       string            `gorm:"size:64;not null;index" json:"creator_id"`
	DepartureTime   time.Time         `gorm:"not null;index" json:"departure_time"`
	PickupLocation  string            `gorm:"size:100;not null" json:"pickup_location"`
	DropoffLocation string            `gorm:"size:100;not null" json:"dropoff_location"`
	MemberLimit     int               `gorm:"not null" json:"member_limit"`
	Members         []TaxiPartyMember `gorm:"foreignKey:PartyID" json:"members"`
	CreatedAt       time.Time         `json:"created_at"`
}

func (p *TaxiParty) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}

// MemberIDs lists the current member ids in join order.
func (p *TaxiParty) MemberIDs() []string {
	ids := make([]string, 0, len(p.Members))
	for _, m := range p.Members {
		ids = append(ids, m.UserID)
	}
	return ids
}

func (p *TaxiParty) HasMember(userID string) bool {
	for _, m := range p.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

type TaxiPartyMember struct {
	PartyID  string    `gorm:"primaryKey;size:36" json:"-"`
	UserID   string    `gorm:"primaryKey;size:64;index" json:"user_id"`
	JoinedAt time.Time `json:"joined_at"`
}
