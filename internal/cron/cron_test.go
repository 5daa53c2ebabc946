package cron

import (
	"context"
	"testing"
	"time"

	"github.com/Marga-Ghale/sticky-desk-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanupOldNotificationsKeepsUnread(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewInMemoryRepositories()

	read := &repository.Notification{UserID: "u1", Type: "MEMBER_ADDED", Title: "read"}
	unread := &repository.Notification{UserID: "u1", Type: "MEMBER_ADDED", Title: "unread"}
	require.NoError(t, repos.NotificationRepo.Create(ctx, read))
	require.NoError(t, repos.NotificationRepo.Create(ctx, unread))
	require.NoError(t, repos.NotificationRepo.MarkAsRead(ctx, "u1", read.ID))

	s := NewScheduler(repos.UserRepo, repos.NotificationRepo)
	s.retention = -time.Minute

	assert.Equal(t, 1, s.cleanupOldNotifications())

	left, err := repos.NotificationRepo.FindByUserID(ctx, "u1", false, 10)
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, unread.ID, left[0].ID)
}

func TestCleanupRespectsRetention(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewInMemoryRepositories()

	n := &repository.Notification{UserID: "u1", Type: "MEMBER_ADDED", Title: "fresh"}
	require.NoError(t, repos.NotificationRepo.Create(ctx, n))
	require.NoError(t, repos.NotificationRepo.MarkAsRead(ctx, "u1", n.ID))

	s := NewScheduler(repos.UserRepo, repos.NotificationRepo)
	assert.Equal(t, 0, s.cleanupOldNotifications())
}

func TestUpdateInactiveUserStatus(t *testing.T) {
	ctx := context.Background()
	repos := repository.NewInMemoryRepositories()

	u := &repository.User{Email: "ann@example.com", Password: "x"}
	require.NoError(t, repos.UserRepo.Create(ctx, u))

	s := NewScheduler(repos.UserRepo, repos.NotificationRepo)
	assert.Equal(t, 0, s.updateInactiveUserStatus(), "freshly active user stays online")

	s.awayAfter = -time.Minute
	assert.Equal(t, 1, s.updateInactiveUserStatus())

	got, err := repos.UserRepo.FindByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "away", got.Status)
}

func TestNilReposAreSkipped(t *testing.T) {
	s := NewScheduler(nil, nil)
	assert.Equal(t, 0, s.cleanupOldNotifications())
	assert.Equal(t, 0, s.updateInactiveUserStatus())
	s.ManualTrigger("all")
}
