package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"campuslink/internal/clock"
	"campuslink/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 신뢰도 변동값
const (
	PointsMarketGood = 3   // 거래 후기 좋음
	PointsMarketBad  = -15 // 거래 후기 나쁨
	PointsTaxiAttend = 2   // 택시 동승 참석
	PointsTaxiNoShow = -7  // 택시 노쇼
)

// RewardPoints is the fixed positive delta for an activity.
func RewardPoints(activity models.ActivityType) int {
	switch activity {
	case models.ActivityMarket:
		return PointsMarketGood
	case models.ActivityTaxi:
		return PointsTaxiAttend
	}
	return 0
}

// ReputationService adjusts trust scores and keeps the grant ledger.
// Positive grants are rate limited through the ledger; penalties are not logged.
type ReputationService struct {
	db          *gorm.DB
	calendar    *clock.Calendar
	eligibility *EligibilityService
	logger      *zap.Logger
}

func NewReputation(
	db *gorm.DB, calendar *clock.Calendar, eligibility *EligibilityService, logger *zap.Logger,
) *ReputationService {
	return &ReputationService{
		db:          db,
		calendar:    calendar,
		eligibility: eligibility,
		logger:      logger.Named("reputation_service"),
	}
}

// GrantPositive adds points and the matching ledger entry in one transaction.
// The caller must already hold an allowed Decision.
func (s *ReputationService) GrantPositive(
	ctx context.Context, targetUserID, sourceUserID string, activity models.ActivityType, points int,
) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.grant(tx, targetUserID, sourceUserID, activity, points, s.calendar.Now())
	})
}

func (s *ReputationService) grant(
	tx *gorm.DB, targetUserID, sourceUserID string, activity models.ActivityType, points int, now time.Time,
) error {
	if points <= 0 {
		return fmt.Errorf("%w: positive grant of %d", ErrInvalidPoints, points)
	}
	if !activity.Valid() {
		return fmt.Errorf("%w: %q", models.ErrUnknownActivity, activity)
	}

	// 1. 원장 기록 (같은 기간 같은 쌍은 유니크 키로 차단)
	entry := models.LedgerEntry{
		TargetUserID: targetUserID,
		SourceUserID: sourceUserID,
		ActivityType: activity,
		Points:       points,
		GrantKey:     grantKey(targetUserID, sourceUserID, now),
		CreatedAt:    now.UTC(),
	}
	res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&entry)
	if res.Error != nil {
		return fmt.Errorf("failed to append ledger entry: %w", translateStoreError(res.Error))
	}
	if res.RowsAffected == 0 {
		return &IneligibleError{Reason: ReasonCooldown}
	}

	// 2. 신뢰도 증가
	return adjustScore(tx, targetUserID, points)
}

// grantKey buckets grants per pair into cooldown-sized windows so that two
// racing grants cannot both commit.
func grantKey(targetUserID, sourceUserID string, now time.Time) string {
	bucket := now.Unix() / int64(PairCooldown/time.Second)
	return fmt.Sprintf("%s|%s|%d", targetUserID, sourceUserID, bucket)
}

// Grant checks eligibility and, when allowed, grants the activity's reward.
// Check and write share one transaction.
func (s *ReputationService) Grant(
	ctx context.Context, targetUserID, sourceUserID string, activity models.ActivityType,
) (Decision, error) {
	if targetUserID == sourceUserID {
		return Decision{}, ErrSelfAction
	}

	var decision Decision
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActiveUser(tx, sourceUserID); err != nil {
			return err
		}

		now := s.calendar.Now()
		d, err := s.eligibility.check(tx, targetUserID, sourceUserID, activity, now)
		decision = d
		if err != nil || !d.Allowed {
			return err
		}

		err = s.grant(tx, targetUserID, sourceUserID, activity, RewardPoints(activity), now)
		var ineligible *IneligibleError
		if errors.As(err, &ineligible) {
			decision = Decision{Reason: ineligible.Reason}
			return nil
		}
		return err
	})
	if err != nil {
		decision.Allowed = false
		return decision, err
	}

	if decision.Allowed {
		s.logger.Info("Reputation granted",
			zap.String("target_user_id", targetUserID),
			zap.String("source_user_id", sourceUserID),
			zap.String("activity", activity.String()))
	}
	return decision, nil
}

// ApplyPenalty subtracts points without eligibility checks or ledger entries.
func (s *ReputationService) ApplyPenalty(ctx context.Context, targetUserID string, points int) error {
	if points >= 0 {
		return fmt.Errorf("%w: penalty of %d", ErrInvalidPoints, points)
	}
	if err := adjustScore(s.db.WithContext(ctx), targetUserID, points); err != nil {
		return err
	}
	s.logger.Info("Penalty applied",
		zap.String("target_user_id", targetUserID),
		zap.Int("points", points))
	return nil
}

// ReviewMarket settles a marketplace review: a good review is a rate limited
// grant, a bad one an immediate penalty.
func (s *ReputationService) ReviewMarket(
	ctx context.Context, targetUserID, reviewerID string, positive bool,
) (Decision, error) {
	if positive {
		return s.Grant(ctx, targetUserID, reviewerID, models.ActivityMarket)
	}
	if targetUserID == reviewerID {
		return Decision{}, ErrSelfAction
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActiveUser(tx, reviewerID); err != nil {
			return err
		}
		return adjustScore(tx, targetUserID, PointsMarketBad)
	})
	if err != nil {
		return Decision{}, err
	}
	return Decision{Allowed: true}, nil
}

// Ledger lists the most recent grants received by a user.
func (s *ReputationService) Ledger(ctx context.Context, targetUserID string, limit int) ([]models.LedgerEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var entries []models.LedgerEntry
	err := s.db.WithContext(ctx).
		Where("target_user_id = ?", targetUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger: %w", translateStoreError(err))
	}
	return entries, nil
}
