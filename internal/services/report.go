package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"campuslink/internal/clock"
	"campuslink/internal/models"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SuspensionThreshold is the report count at which an account is suspended.
const SuspensionThreshold = 3

const maxReportDescription = 1000

// RoleAdmin receives report notifications.
const RoleAdmin = "admin"

// ReportService files user reports and suspends accounts that collect too many.
type ReportService struct {
	db       *gorm.DB
	calendar *clock.Calendar
	policy   *bluemonday.Policy
	logger   *zap.Logger
}

func NewReport(db *gorm.DB, calendar *clock.Calendar, logger *zap.Logger) *ReportService {
	return &ReportService{
		db:       db,
		calendar: calendar,
		policy:   bluemonday.StrictPolicy(),
		logger:   logger.Named("report_service"),
	}
}

// FileReport records the report, bumps the target's counter and suspends the
// target on reaching the threshold, all in one transaction.
func (s *ReportService) FileReport(
	ctx context.Context, reporterID, targetID string, reason models.ReportReason, description string,
) (*models.Report, error) {
	if reporterID == targetID {
		return nil, ErrSelfAction
	}
	if _, err := models.ParseReportReason(string(reason)); err != nil {
		return nil, err
	}

	now := s.calendar.Now().UTC()
	report := &models.Report{
		ReporterID:  reporterID,
		TargetID:    targetID,
		Reason:      reason,
		Description: s.sanitize(description),
		Status:      models.ReportStatusPending,
		CreatedAt:   now,
	}

	var suspended bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if _, err := loadActiveUser(tx, reporterID); err != nil {
			return err
		}
		if _, err := loadUser(tx, targetID); err != nil {
			return err
		}

		// 1. 신고 기록 (같은 신고자는 한 번만)
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(report)
		if res.Error != nil {
			return fmt.Errorf("failed to create report: %w", translateStoreError(res.Error))
		}
		if res.RowsAffected == 0 {
			return ErrDuplicateReport
		}

		// 2. 신고 횟수 증가
		err := tx.Model(&models.User{}).
			Where("id = ?", targetID).
			UpdateColumn("report_count", gorm.Expr("report_count + ?", 1)).Error
		if err != nil {
			return fmt.Errorf("failed to increment report count: %w", translateStoreError(err))
		}

		// 3. 임계값 도달 시 정지 (정지 시각은 최초 1회만 기록)
		var count int
		if err := tx.Model(&models.User{}).Where("id = ?", targetID).Pluck("report_count", &count).Error; err != nil {
			return fmt.Errorf("failed to read report count: %w", translateStoreError(err))
		}
		if count < SuspensionThreshold {
			return nil
		}
		res = tx.Model(&models.User{}).
			Where("id = ? AND is_suspended = ?", targetID, false).
			UpdateColumns(map[string]any{"is_suspended": true, "suspended_at": now})
		if res.Error != nil {
			return fmt.Errorf("failed to suspend user: %w", translateStoreError(res.Error))
		}
		if res.RowsAffected == 0 {
			return nil
		}
		suspended = true

		notice := models.Notification{
			UserID:    targetID,
			Type:      models.NotificationTypeSuspension,
			Reason:    fmt.Sprintf("신고 %d건 누적으로 계정이 정지되었습니다.", count),
			CreatedAt: now,
		}
		if err := tx.Create(&notice).Error; err != nil {
			return fmt.Errorf("failed to create suspension notification: %w", translateStoreError(err))
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, ErrDuplicateReport) && !errors.Is(err, ErrPermissionDenied) && !errors.Is(err, ErrUserNotFound) {
			s.logger.Error("Failed to file report",
				zap.String("reporter_id", reporterID),
				zap.String("target_id", targetID),
				zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("Report filed",
		zap.String("report_id", report.ID),
		zap.String("target_id", targetID),
		zap.String("reason", string(reason)),
		zap.Bool("suspended", suspended))

	// 관리자 알림은 신고 자체와 분리 (실패해도 신고는 유지)
	if err := s.notifyAdmins(ctx, report, now); err != nil {
		s.logger.Warn("Failed to notify admins", zap.String("report_id", report.ID), zap.Error(err))
	}
	return report, nil
}

func (s *ReportService) notifyAdmins(ctx context.Context, report *models.Report, now time.Time) error {
	var adminIDs []string
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("role = ? AND id <> ?", RoleAdmin, report.ReporterID).
		Pluck("id", &adminIDs).Error
	if err != nil || len(adminIDs) == 0 {
		return err
	}

	notices := make([]models.Notification, 0, len(adminIDs))
	for _, id := range adminIDs {
		actor := report.ReporterID
		notices = append(notices, models.Notification{
			UserID:    id,
			ActorID:   &actor,
			Type:      models.NotificationTypeReport,
			Reason:    fmt.Sprintf("%s: %s", report.Reason, report.TargetID),
			CreatedAt: now,
		})
	}
	return s.db.WithContext(ctx).Create(&notices).Error
}

// List returns reports newest first, optionally only those against targetID.
func (s *ReportService) List(ctx context.Context, targetID string, limit int) ([]models.Report, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	query := s.db.WithContext(ctx).Order("created_at DESC").Limit(limit)
	if targetID != "" {
		query = query.Where("target_id = ?", targetID)
	}
	var reports []models.Report
	if err := query.Find(&reports).Error; err != nil {
		return nil, fmt.Errorf("failed to list reports: %w", translateStoreError(err))
	}
	return reports, nil
}

// sanitize strips markup and truncates to the stored length.
func (s *ReportService) sanitize(description string) string {
	clean := strings.TrimSpace(s.policy.Sanitize(description))
	if utf8.RuneCountInString(clean) <= maxReportDescription {
		return clean
	}
	return string([]rune(clean)[:maxReportDescription])
}
