package services_test

import (
	"testing"
	"time"

	"campuslink/internal/db/dbtest"
	"campuslink/internal/models"
	"campuslink/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileReportSuspendsAtThreshold(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "target", "r1", "r2", "r3", "r4")
	reports := services.NewReport(f.db, f.calendar, f.logger)
	ctx := testContext(t)

	for _, reporter := range []string{"r1", "r2"} {
		_, err := reports.FileReport(ctx, reporter, "target", models.ReasonSpam, "")
		require.NoError(t, err)
	}
	target := dbtest.ReloadUser(t, f.db, "target")
	assert.Equal(t, 2, target.ReportCount)
	assert.False(t, target.IsSuspended)

	_, err := reports.FileReport(ctx, "r3", "target", models.ReasonFraud, "")
	require.NoError(t, err)
	target = dbtest.ReloadUser(t, f.db, "target")
	assert.Equal(t, 3, target.ReportCount)
	assert.True(t, target.Suspension().Suspended)
	require.NotNil(t, target.SuspendedAt)
	firstSuspension := *target.SuspendedAt

	// Further reports count but never move the suspension timestamp
	f.clock.Advance(time.Hour)
	_, err = reports.FileReport(ctx, "r4", "target", models.ReasonOther, "")
	require.NoError(t, err)
	target = dbtest.ReloadUser(t, f.db, "target")
	assert.Equal(t, 4, target.ReportCount)
	assert.True(t, firstSuspension.Equal(*target.SuspendedAt))

	var notices []models.Notification
	require.NoError(t, f.db.Where("user_id = ? AND type = ?", "target", models.NotificationTypeSuspension).Find(&notices).Error)
	assert.Len(t, notices, 1)
}

func TestFileReportRejectsDuplicate(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "target", "reporter")
	reports := services.NewReport(f.db, f.calendar, f.logger)
	ctx := testContext(t)

	_, err := reports.FileReport(ctx, "reporter", "target", models.ReasonNoShow, "")
	require.NoError(t, err)
	_, err = reports.FileReport(ctx, "reporter", "target", models.ReasonSpam, "again")
	require.ErrorIs(t, err, services.ErrDuplicateReport)

	assert.Equal(t, 1, dbtest.ReloadUser(t, f.db, "target").ReportCount)
}

func TestFileReportValidation(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "target", "reporter")
	reports := services.NewReport(f.db, f.calendar, f.logger)
	ctx := testContext(t)

	_, err := reports.FileReport(ctx, "reporter", "reporter", models.ReasonSpam, "")
	assert.ErrorIs(t, err, services.ErrSelfAction)

	_, err = reports.FileReport(ctx, "reporter", "target", models.ReportReason("boring"), "")
	assert.ErrorIs(t, err, models.ErrUnknownReportReason)

	_, err = reports.FileReport(ctx, "reporter", "ghost", models.ReasonSpam, "")
	assert.ErrorIs(t, err, services.ErrUserNotFound)

	assert.Equal(t, 0, dbtest.ReloadUser(t, f.db, "target").ReportCount)
}

func TestSuspendedUserCannotReport(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "target", "reporter")
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", "reporter").Update("is_suspended", true).Error)
	reports := services.NewReport(f.db, f.calendar, f.logger)

	_, err := reports.FileReport(testContext(t), "reporter", "target", models.ReasonSpam, "")
	assert.ErrorIs(t, err, services.ErrPermissionDenied)
}

func TestFileReportSanitizesAndNotifiesAdmins(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.users(t, "target", "reporter", "moderator")
	require.NoError(t, f.db.Model(&models.User{}).Where("id = ?", "moderator").Update("role", services.RoleAdmin).Error)
	reports := services.NewReport(f.db, f.calendar, f.logger)

	report, err := reports.FileReport(testContext(t), "reporter", "target", models.ReasonAbusive,
		`<script>alert(1)</script><b>욕설</b> 했어요`)
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, "욕설 했어요", report.Description)
	assert.Equal(t, models.ReportStatusPending, report.Status)

	var notices []models.Notification
	require.NoError(t, f.db.Where("user_id = ?", "moderator").Find(&notices).Error)
	require.Len(t, notices, 1)
	assert.Equal(t, models.NotificationTypeReport, notices[0].Type)
	require.NotNil(t, notices[0].ActorID)
	assert.Equal(t, "reporter", *notices[0].ActorID)

	listed, err := reports.List(testContext(t), "target", 0)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, report.ID, listed[0].ID)
}
