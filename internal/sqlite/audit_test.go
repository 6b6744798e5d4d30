package sqlite_test

import (
	"context"
	"testing"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/audit"
	"github.com/jdutton/n8n-pii-sanitization/internal/repository"
	"github.com/jdutton/n8n-pii-sanitization/internal/sqlite"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *sqlite.DB {
	t.Helper()
	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations())
	return db
}

func TestAuditRepository_LogAndList(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewAuditRepository(newTestDB(t))

	require.NoError(t, repo.Log(ctx, &audit.Event{
		SessionID: "chat_1_abc",
		Type:      audit.EventSessionCreated,
	}))
	require.NoError(t, repo.Log(ctx, &audit.Event{
		SessionID: "chat_1_abc",
		Type:      audit.EventTurnProcessed,
		Persons:   2,
		Turns:     1,
	}))
	require.NoError(t, repo.Log(ctx, &audit.Event{
		SessionID: "single_2_def",
		Type:      audit.EventSessionCreated,
	}))

	events, err := repo.List(ctx, audit.ListOptions{SessionID: "chat_1_abc"})
	require.NoError(t, err)
	require.Len(t, events, 2)
	// Newest first.
	require.Equal(t, audit.EventTurnProcessed, events[0].Type)
	require.Equal(t, 2, events[0].Persons)
	require.NotEmpty(t, events[0].EventID)

	events, err = repo.List(ctx, audit.ListOptions{Type: audit.EventSessionCreated})
	require.NoError(t, err)
	require.Len(t, events, 2)

	events, err = repo.List(ctx, audit.ListOptions{Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestAuditRepository_GetLast(t *testing.T) {
	ctx := context.Background()
	repo := sqlite.NewAuditRepository(newTestDB(t))

	_, err := repo.GetLast(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.Log(ctx, &audit.Event{
		SessionID: "chat_1_abc",
		Type:      audit.EventSessionCreated,
	}))
	require.NoError(t, repo.Log(ctx, &audit.Event{
		SessionID: "chat_1_abc",
		Type:      audit.EventSessionErased,
		Turns:     3,
	}))

	last, err := repo.GetLast(ctx, "chat_1_abc")
	require.NoError(t, err)
	require.Equal(t, audit.EventSessionErased, last.Type)
	require.Equal(t, 3, last.Turns)
}
