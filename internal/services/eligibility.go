package services

import (
	"context"
	"fmt"
	"time"

	"campuslink/internal/clock"
	"campuslink/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 평판 지급 제한
const (
	DailyGrantLimit = 3                  // 하루에 한 사용자가 받을 수 있는 지급 횟수
	PairCooldown    = 7 * 24 * time.Hour // 같은 상대에게서 다시 받기까지의 대기 기간
)

// Decision reasons.
const (
	ReasonDailyCap          = "daily cap exceeded"
	ReasonCooldown          = "cooldown active"
	ReasonLedgerUnavailable = "ledger unavailable"
)

// Decision is the outcome of an eligibility check.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// EligibilityService decides whether a positive grant may land. It only reads the ledger.
type EligibilityService struct {
	db       *gorm.DB
	calendar *clock.Calendar
	logger   *zap.Logger
}

func NewEligibility(db *gorm.DB, calendar *clock.Calendar, logger *zap.Logger) *EligibilityService {
	return &EligibilityService{
		db:       db,
		calendar: calendar,
		logger:   logger.Named("eligibility_service"),
	}
}

// Check applies the daily cap and the pairwise cooldown. A ledger read failure
// yields a refusal together with the error, never an approval.
func (s *EligibilityService) Check(
	ctx context.Context, targetUserID, sourceUserID string, activity models.ActivityType,
) (Decision, error) {
	return s.check(s.db.WithContext(ctx), targetUserID, sourceUserID, activity, s.calendar.Now())
}

func (s *EligibilityService) check(
	tx *gorm.DB, targetUserID, sourceUserID string, activity models.ActivityType, now time.Time,
) (Decision, error) {
	if !activity.Valid() {
		return Decision{Reason: models.ErrUnknownActivity.Error()},
			fmt.Errorf("%w: %q", models.ErrUnknownActivity, activity)
	}

	var grantedToday int64
	err := tx.Model(&models.LedgerEntry{}).
		Where("target_user_id = ? AND created_at >= ?", targetUserID, s.calendar.StartOfDay(now).UTC()).
		Count(&grantedToday).Error
	if err != nil {
		s.logger.Warn("Failed to count today's grants",
			zap.String("target_user_id", targetUserID),
			zap.Error(err))
		return Decision{Reason: ReasonLedgerUnavailable},
			fmt.Errorf("failed to count today's grants: %w", translateStoreError(err))
	}
	if grantedToday >= DailyGrantLimit {
		return Decision{Reason: ReasonDailyCap}, nil
	}

	var recentFromSource int64
	err = tx.Model(&models.LedgerEntry{}).
		Where("target_user_id = ? AND source_user_id = ? AND created_at >= ?",
			targetUserID, sourceUserID, now.Add(-PairCooldown).UTC()).
		Count(&recentFromSource).Error
	if err != nil {
		s.logger.Warn("Failed to look up pair cooldown",
			zap.String("target_user_id", targetUserID),
			zap.String("source_user_id", sourceUserID),
			zap.Error(err))
		return Decision{Reason: ReasonLedgerUnavailable},
			fmt.Errorf("failed to look up pair cooldown: %w", translateStoreError(err))
	}
	if recentFromSource > 0 {
		return Decision{Reason: ReasonCooldown}, nil
	}

	return Decision{Allowed: true}, nil
}
