package event_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/infort/rh/core"
	"github.com/infort/rh/core/event"
	"github.com/infort/rh/core/notification"
	"github.com/infort/rh/core/user"
	sqlxrepos "github.com/infort/rh/storage/database/sqlx"
	"github.com/infort/rh/testutil"
)

func TestEvents(t *testing.T) {
	conf := testutil.Config(t)
	db := testutil.OpenDB(t, conf)
	userRepo := sqlxrepos.NewUserRepository(db)
	notifs := notification.NewService(sqlxrepos.NewNotificationRepository(db))
	svc := event.NewService(db, sqlxrepos.NewEventRepository(db), user.NewService(userRepo, nil, conf), notifs)
	ctx := context.Background()

	ana := testutil.CreateUser(t, userRepo, "Ana", "ana@infort.test", "secret", user.RoleEmployee, user.StatusActive)
	bob := testutil.CreateUser(t, userRepo, "Bruno", "bruno@infort.test", "secret", user.RoleEmployee, user.StatusActive)

	next := time.Now().UTC().Add(48 * time.Hour).Format("2006-01-02T15:04")
	past := time.Now().UTC().Add(-48 * time.Hour).Format("2006-01-02T15:04")

	t.Run("invalid", func(t *testing.T) {
		_, err := svc.Create(ctx, event.NewEvent{Title: "Treinamento", Description: "Anual", DateTime: next})
		assert.IsType(t, &core.ValidationError{}, err, "no participants")

		_, err = svc.Create(ctx, event.NewEvent{Title: "Treinamento", Description: "  ", DateTime: next, ParticipantIDs: []int{ana.ID}})
		require.IsType(t, &core.ValidationError{}, err, "blank description")
		assert.Equal(t, "description", err.(*core.ValidationError).Fields[0].Field)

		_, err = svc.Create(ctx, event.NewEvent{Title: "Treinamento", Description: "Anual", DateTime: next, ParticipantIDs: []int{ana.ID, 999}})
		require.IsType(t, &core.ValidationError{}, err, "unknown participant")
		assert.Equal(t, "participantIds", err.(*core.ValidationError).Fields[0].Field)

		evts, err := svc.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, evts, "nothing persisted")
		count, err := notifs.UnreadCount(ctx, ana.ID)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	evt, err := svc.Create(ctx, event.NewEvent{
		Title:          "Treinamento",
		Description:    "Segurança do trabalho",
		DateTime:       next,
		ParticipantIDs: []int{ana.ID, bob.ID, ana.ID},
	})
	require.NoError(t, err)
	require.Len(t, evt.Participants, 2, "duplicates are dropped")

	_, err = svc.Create(ctx, event.NewEvent{Title: "Retrospectiva", Description: "Sprint 12", DateTime: past, ParticipantIDs: []int{ana.ID}})
	require.NoError(t, err)

	for _, u := range []user.User{ana, bob} {
		ns, err := notifs.ListFor(ctx, u.ID)
		require.NoError(t, err)
		require.NotEmpty(t, ns)
		assert.Equal(t, notification.LinkMyEvents, ns[0].Link)
		assert.Equal(t, "Você foi convidado para o evento: Treinamento", ns[0].Message)
	}

	evts, err := svc.ListFor(ctx, ana.ID, false)
	require.NoError(t, err)
	require.Len(t, evts, 2)
	assert.Equal(t, "Retrospectiva", evts[0].Title, "date ascending")

	evts, err = svc.ListFor(ctx, ana.ID, true)
	require.NoError(t, err)
	require.Len(t, evts, 1)
	assert.Equal(t, evt.ID, evts[0].ID)

	evts, err = svc.ListFor(ctx, bob.ID, false)
	require.NoError(t, err)
	assert.Len(t, evts, 1)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Len(t, all[0].Participants, 1)
	assert.Equal(t, []string{"Ana", "Bruno"}, []string{all[1].Participants[0].UserName, all[1].Participants[1].UserName})
}
