package services_test

import (
	"testing"

	"campuslink/internal/models"
	"campuslink/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotificationLifecycle(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	notifications := services.NewNotification(f.db, f.logger)
	ctx := testContext(t)

	for _, n := range []models.Notification{
		{UserID: "me", Type: models.NotificationTypeSystem, Reason: "first"},
		{UserID: "me", Type: models.NotificationTypeSuspension, Reason: "second"},
		{UserID: "someone", Type: models.NotificationTypeSystem, Reason: "other"},
	} {
		n := n
		require.NoError(t, f.db.Create(&n).Error)
	}

	list, err := notifications.List(ctx, "me", 0)
	require.NoError(t, err)
	require.Len(t, list, 2)
	unread, err := notifications.UnreadCount(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	require.NoError(t, notifications.MarkRead(ctx, "me", list[0].ID))
	assert.ErrorIs(t, notifications.MarkRead(ctx, "someone", list[1].ID), services.ErrNotificationNotFound)

	marked, err := notifications.MarkAllRead(ctx, "me")
	require.NoError(t, err)
	assert.Equal(t, int64(1), marked)

	require.NoError(t, notifications.Delete(ctx, "me", list[0].ID))
	assert.ErrorIs(t, notifications.Delete(ctx, "me", list[0].ID), services.ErrNotificationNotFound)

	list, err = notifications.List(ctx, "me", 10)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsRead)
}
