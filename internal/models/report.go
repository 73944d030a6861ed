package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrUnknownReportReason = errors.New("unknown report reason")

type ReportReason string

const (
	ReasonSpam          ReportReason = "spam"
	ReasonFraud         ReportReason = "fraud"
	ReasonAbusive       ReportReason = "abusive_language"
	ReasonNoShow        ReportReason = "no_show"
	ReasonInappropriate ReportReason = "inappropriate_content"
	ReasonOther         ReportReason = "other"
)

func ParseReportReason(s string) (ReportReason, error) {
	switch r := ReportReason(s); r {
	case ReasonSpam, ReasonFraud, ReasonAbusive, ReasonNoShow, ReasonInappropriate, ReasonOther:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownReportReason, s)
}

const ReportStatusPending = "pending"

// Report is one user's complaint about another. A reporter may report a target only once.
type Report struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	ReporterID  string       `gorm:"size:64;not null;uniqueIndex:idx_report_pair,priority:1" json:"reporter_id"`
	TargetID    string       `gorm:"size:64;not null;uniqueIndex:idx_report_pair,priority:2;index" json:"target_id"`
	Reason      ReportReason `gorm:"size:32;not null" json:"reason"`
	Description string       `gorm:"type:text" json:"description"`
	Status      string       `gorm:"size:20;not null;default:'pending'" json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (r *Report) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	return nil
}
