package chat

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hackhub/internal/db"
)

func openTestDB(t *testing.T) *db.Database {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	database, err := db.NewDatabase(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, database.AutoMigrate())
	return database
}

func newOwner(t *testing.T, database *db.Database) string {
	t.Helper()
	owner := uuid.NewString()
	t.Cleanup(func() {
		_, _ = database.Conn.Exec("DELETE FROM conversations WHERE owner_id = $1", owner)
	})
	return owner
}

func TestRepository_RoundTrip(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	owner := newOwner(t, database)
	repo := NewRepository(database.Conn, nil)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	conv := Conversation{
		ID: uuid.NewString(), ParticipantID: "mentor-1", ParticipantName: "Priya", ParticipantRole: "mentor",
		Messages: []Message{
			{ID: uuid.NewString(), SenderID: SelfSender, SenderName: SelfName, Content: "hi", Timestamp: base, Read: true},
			{ID: uuid.NewString(), SenderID: "mentor-1", SenderName: "Priya", Content: "hello", Timestamp: base.Add(time.Minute)},
		},
	}
	require.NoError(t, repo.SaveConversation(ctx, owner, conv))

	got, err := repo.Conversations(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Messages, 2)
	assert.Equal(t, SelfSender, got[0].Messages[0].SenderID)
	assert.Equal(t, "hello", got[0].Messages[1].Content)

	s := NewStore(repo, WithScheduler((&fakeTimers{}).AfterFunc))
	require.NoError(t, s.Initialize(ctx, owner))
	defer s.Close()
	c, _ := s.Conversation(conv.ID)
	assert.Equal(t, owner, c.Messages[0].SenderID)
}

func TestRepository_SeedsEmptyInbox(t *testing.T) {
	database := openTestDB(t)
	ctx := context.Background()
	repo := NewRepository(database.Conn, StaticSeed{})
	first, second := newOwner(t, database), newOwner(t, database)

	got, err := repo.Conversations(ctx, first)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "Priya Sharma", got[0].ParticipantName)
	assert.NotEqual(t, "conv-mentor-priya", got[0].ID)

	// A second load reads the persisted rows instead of seeding again.
	again, err := repo.Conversations(ctx, first)
	require.NoError(t, err)
	require.Len(t, again, 3)
	assert.Equal(t, got[0].ID, again[0].ID)
	assert.Equal(t, SelfSender, again[0].Messages[0].SenderID)

	// Another owner gets its own copy.
	other, err := repo.Conversations(ctx, second)
	require.NoError(t, err)
	require.Len(t, other, 3)
	assert.NotEqual(t, got[0].ID, other[0].ID)

	s := NewStore(repo, WithScheduler((&fakeTimers{}).AfterFunc))
	defer s.Close()
	require.NoError(t, s.Initialize(ctx, first))
	require.NoError(t, s.Select(got[1].ID))
	assert.True(t, s.Send(ctx, "Is the sandbox up?"))
}
