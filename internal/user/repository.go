package user

import (
	"context"
	"encoding/json"
	"fmt"

	"hackhub/internal/storage"
)

const (
	authKey  = "auth"
	usersKey = "users"

	recordVersion = 1
)

// storedUser is the durable user record. Only the bcrypt hash is kept.
type storedUser struct {
	Version int `json:"version"`
	User
	PasswordHash string `json:"passwordHash"`
}

type authSnapshot struct {
	Version int   `json:"version"`
	User    *User `json:"user"`
}

// Repository reads and writes the two durable keys. Absent or malformed
// values read as empty.
type Repository struct {
	kv storage.KV
}

func NewRepository(kv storage.KV) *Repository {
	return &Repository{kv: kv}
}

func (r *Repository) LoadUsers(ctx context.Context) ([]storedUser, error) {
	raw, ok, err := r.kv.Get(ctx, usersKey)
	if err != nil {
		return nil, fmt.Errorf("read users: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var records []storedUser
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		return nil, nil
	}
	out := records[:0]
	for _, rec := range records {
		if rec.ID == "" || rec.Version > recordVersion {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *Repository) SaveUsers(ctx context.Context, records []storedUser) error {
	for i := range records {
		records[i].Version = recordVersion
	}
	b, err := json.Marshal(records)
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, usersKey, string(b)); err != nil {
		return fmt.Errorf("write users: %w", err)
	}
	return nil
}

// LoadSession returns the persisted session user, or nil.
func (r *Repository) LoadSession(ctx context.Context) (*User, error) {
	raw, ok, err := r.kv.Get(ctx, authKey)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var snap authSnapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return nil, nil
	}
	if snap.User == nil || snap.User.ID == "" || snap.Version > recordVersion {
		return nil, nil
	}
	return snap.User, nil
}

func (r *Repository) SaveSession(ctx context.Context, u *User) error {
	b, err := json.Marshal(authSnapshot{Version: recordVersion, User: u})
	if err != nil {
		return err
	}
	if err := r.kv.Set(ctx, authKey, string(b)); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (r *Repository) ClearSession(ctx context.Context) error {
	if err := r.kv.Delete(ctx, authKey); err != nil {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}
