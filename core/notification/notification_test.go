package notification_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infort/rh/core/notification"
	"github.com/infort/rh/core/user"
	sqlxrepos "github.com/infort/rh/storage/database/sqlx"
	"github.com/infort/rh/testutil"
)

func TestNotifications(t *testing.T) {
	conf := testutil.Config(t)
	db := testutil.OpenDB(t, conf)
	users := sqlxrepos.NewUserRepository(db)
	svc := notification.NewService(sqlxrepos.NewNotificationRepository(db))
	ctx := context.Background()

	ana := testutil.CreateUser(t, users, "Ana", "ana@infort.test", "secret", user.RoleEmployee, user.StatusActive)
	bob := testutil.CreateUser(t, users, "Bruno", "bruno@infort.test", "secret", user.RoleEmployee, user.StatusActive)

	assert.Error(t, svc.Append(ctx, ana.ID, "x", "somewhere"), "unknown link")

	require.NoError(t, svc.Append(ctx, ana.ID, "primeira", notification.LinkDashboard))
	require.NoError(t, svc.FanOut(ctx, []int{ana.ID, bob.ID}, "segunda", notification.LinkMyEvents))
	require.NoError(t, svc.Append(ctx, ana.ID, "terceira", notification.LinkDashboard))
	require.NoError(t, svc.FanOut(ctx, nil, "ninguém", notification.LinkDashboard))

	notifs, err := svc.ListFor(ctx, ana.ID)
	require.NoError(t, err)
	require.Len(t, notifs, 3)
	assert.Equal(t, []string{"primeira", "segunda", "terceira"}, []string{notifs[0].Message, notifs[1].Message, notifs[2].Message})
	assert.False(t, notifs[0].Read)
	assert.Equal(t, notification.LinkMyEvents, notifs[1].Link)

	count, err := svc.UnreadCount(ctx, ana.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	bobNotifs, err := svc.ListFor(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, bobNotifs, 1)

	t.Run("mark given ids, ignoring other users'", func(t *testing.T) {
		n, err := svc.MarkRead(ctx, ana.ID, []int{notifs[0].ID, notifs[2].ID, bobNotifs[0].ID})
		require.NoError(t, err)
		assert.EqualValues(t, 2, n)

		count, err := svc.UnreadCount(ctx, ana.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		count, err = svc.UnreadCount(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("empty ids mark nothing", func(t *testing.T) {
		n, err := svc.MarkRead(ctx, ana.ID, []int{})
		require.NoError(t, err)
		assert.Zero(t, n)

		count, err := svc.UnreadCount(ctx, ana.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("mark all is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			_, err := svc.MarkRead(ctx, ana.ID, nil)
			require.NoError(t, err)
			count, err := svc.UnreadCount(ctx, ana.ID)
			require.NoError(t, err)
			assert.Equal(t, 0, count)
		}
		notifs, err := svc.ListFor(ctx, ana.ID)
		require.NoError(t, err)
		for _, n := range notifs {
			assert.True(t, n.Read)
		}
	})
}
