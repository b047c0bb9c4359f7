package chat

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
)

// Repository is a SeedProvider backed by the PostgreSQL inbox tables.
type Repository struct {
	db *sql.DB
	// seed fills the inbox of an owner that has no conversations yet. Nil
	// leaves such inboxes empty.
	seed SeedProvider
}

func NewRepository(db *sql.DB, seed SeedProvider) *Repository {
	return &Repository{db: db, seed: seed}
}

// Conversations loads every conversation owned by selfID with its messages
// in insertion order. Messages the owner sent are reported as SelfSender.
// An owner without conversations is first given the seed inbox.
func (r *Repository) Conversations(ctx context.Context, selfID string) ([]Conversation, error) {
	convs, err := r.load(ctx, selfID)
	if err != nil || len(convs) > 0 || r.seed == nil {
		return convs, err
	}
	return r.seedOwner(ctx, selfID)
}

// seedOwner copies the seed inbox into the tables under fresh ids, since
// the seed's ids are shared by every owner.
func (r *Repository) seedOwner(ctx context.Context, ownerID string) ([]Conversation, error) {
	convs, err := r.seed.Conversations(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("seed inbox: %w", err)
	}
	out := make([]Conversation, 0, len(convs))
	for _, c := range convs {
		c = c.clone()
		c.ID = uuid.NewString()
		for i := range c.Messages {
			c.Messages[i].ID = uuid.NewString()
		}
		if err := r.SaveConversation(ctx, ownerID, c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}

func (r *Repository) load(ctx context.Context, selfID string) ([]Conversation, error) {
	query := `
		SELECT id, participant_id, participant_name, COALESCE(participant_avatar, ''), participant_role
		FROM conversations
		WHERE owner_id = $1
		ORDER BY created_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, selfID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []Conversation
	index := make(map[string]int)
	for rows.Next() {
		var c Conversation
		if err := rows.Scan(&c.ID, &c.ParticipantID, &c.ParticipantName, &c.ParticipantAvatar, &c.ParticipantRole); err != nil {
			return nil, err
		}
		index[c.ID] = len(convs)
		convs = append(convs, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(convs) == 0 {
		return nil, nil
	}

	msgQuery := `
		SELECT m.id, m.conversation_id, m.sender_id, m.sender_name, COALESCE(m.sender_avatar, ''), m.content, m.created_at, m.read
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE c.owner_id = $1
		ORDER BY m.created_at, m.id
	`
	mrows, err := r.db.QueryContext(ctx, msgQuery, selfID)
	if err != nil {
		return nil, err
	}
	defer mrows.Close()

	for mrows.Next() {
		var (
			m      Message
			convID string
		)
		if err := mrows.Scan(&m.ID, &convID, &m.SenderID, &m.SenderName, &m.SenderAvatar, &m.Content, &m.Timestamp, &m.Read); err != nil {
			return nil, err
		}
		if m.SenderID == selfID {
			m.SenderID = SelfSender
		}
		if i, ok := index[convID]; ok {
			convs[i].Messages = append(convs[i].Messages, m)
		}
	}
	return convs, mrows.Err()
}

// SaveConversation inserts c and its messages for ownerID.
func (r *Repository) SaveConversation(ctx context.Context, ownerID string, c Conversation) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO conversations (id, owner_id, participant_id, participant_name, participant_avatar, participant_role)
		 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)`,
		c.ID, ownerID, c.ParticipantID, c.ParticipantName, c.ParticipantAvatar, c.ParticipantRole)
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	for _, m := range c.Messages {
		sender := m.SenderID
		if sender == SelfSender {
			sender = ownerID
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO messages (id, conversation_id, sender_id, sender_name, sender_avatar, content, read, created_at)
			 VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8)`,
			m.ID, c.ID, sender, m.SenderName, m.SenderAvatar, m.Content, m.Read, m.Timestamp)
		if err != nil {
			return fmt.Errorf("insert message: %w", err)
		}
	}
	return tx.Commit()
}

var _ SeedProvider = (*Repository)(nil)
