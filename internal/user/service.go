package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hackhub/internal/auth"
	"hackhub/internal/notify"
	"hackhub/internal/storage"
)

// User-facing failure messages recorded on the session.
const (
	msgUserExists         = "User with this email already exists"
	msgInvalidCredentials = "Invalid credentials"
	msgRegisterFailed     = "Registration failed"
	msgLoginFailed        = "Login failed"
)

var (
	ErrUserExists         = errors.New(msgUserExists)
	ErrInvalidCredentials = errors.New(msgInvalidCredentials)
	ErrOperationFailed    = errors.New("operation failed")
	ErrEmptyEmail         = fmt.Errorf("%w: email is required", ErrOperationFailed)
)

const DefaultDelay = 750 * time.Millisecond

// Store owns the single authenticated identity of a client instance and
// keeps it in durable storage. It is safe for concurrent use.
type Store struct {
	repo   *Repository
	sink   notify.Sink
	logger *slog.Logger
	delay  time.Duration
	cost   int
	now    func() time.Time
	newID  func() string

	mu      sync.Mutex
	user    *User
	loading bool
	started bool
	err     error
	errMsg  string
}

type Option func(*Store)

func WithNotifier(s notify.Sink) Option { return func(st *Store) { st.sink = s } }

func WithLogger(l *slog.Logger) Option { return func(st *Store) { st.logger = l } }

// WithDelay sets the simulated latency before register and login resolve.
func WithDelay(d time.Duration) Option { return func(st *Store) { st.delay = d } }

func WithBcryptCost(cost int) Option { return func(st *Store) { st.cost = cost } }

func WithClock(now func() time.Time) Option { return func(st *Store) { st.now = now } }

func NewStore(kv storage.KV, opts ...Option) *Store {
	s := &Store{
		repo:   NewRepository(kv),
		sink:   notify.Discard,
		logger: slog.Default(),
		delay:  DefaultDelay,
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Init restores the session from durable storage. Unreadable state falls
// back to unauthenticated.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	s.started = true
	s.loading = true
	s.mu.Unlock()

	u, err := s.repo.LoadSession(ctx)
	if err != nil {
		s.logger.Warn("restore session", slog.Any("err", err))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.user = u
	return err
}

// Close drops the in-memory session; durable storage is left as is, so a
// later Init restores it.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.err = nil
	s.errMsg = ""
	s.loading = false
	s.started = false
}

// Session returns a snapshot of the current state.
func (s *Store) Session() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Session {
	sess := Session{IsLoading: s.loading, Error: s.errMsg}
	if s.user != nil {
		u := *s.user
		sess.User = &u
	}
	switch {
	case !s.started:
		sess.Status = StatusUninitialized
	case s.loading:
		sess.Status = StatusLoading
	case s.user != nil:
		sess.Status = StatusAuthenticated
	case s.err != nil:
		sess.Status = StatusFailed
	default:
		sess.Status = StatusUnauthenticated
	}
	return sess
}

// User returns the logged-in user, if any.
func (s *Store) User() (User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

// Err returns the error of the last register or login attempt.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// lastFailure returns the message and error of the last attempt together.
func (s *Store) lastFailure() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg, s.err
}

// Register creates an account and logs it in. It reports false and records
// the reason on the session when the (email, role) pair is taken or the
// operation fails.
func (s *Store) Register(ctx context.Context, name, email, password string, role Role) bool {
	u, err := s.attempt(ctx, func(ctx context.Context) (*User, error) {
		return s.register(ctx, name, email, password, role)
	})
	if err != nil {
		return s.fail(ctx, err, msgRegisterFailed)
	}
	s.notify(ctx, notify.KindSuccess, "Account created successfully")
	s.logger.Info("user registered", slog.String("id", u.ID), slog.String("role", string(u.Role)))
	return true
}

func (s *Store) register(ctx context.Context, name, email, password string, role Role) (*User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrOperationFailed, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	if indexOf(records, email, role) >= 0 {
		return nil, ErrUserExists
	}

	hash, err := auth.HashPassword(password, s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	now := s.now().UTC()
	u := User{
		ID:        s.newID(),
		Name:      strings.TrimSpace(name),
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	records = append(records, storedUser{User: u, PasswordHash: hash})
	if err := s.repo.SaveUsers(ctx, records); err != nil {
		return nil, err
	}
	if err := s.repo.SaveSession(ctx, &u); err != nil {
		return nil, err
	}
	s.user = &u
	return &u, nil
}

// Login authenticates against the durable user set. Email and role match
// exactly; the password is checked against the stored hash.
func (s *Store) Login(ctx context.Context, email, password string, role Role) bool {
	u, err := s.attempt(ctx, func(ctx context.Context) (*User, error) {
		return s.login(ctx, email, password, role)
	})
	if err != nil {
		return s.fail(ctx, err, msgLoginFailed)
	}
	s.notify(ctx, notify.KindSuccess, fmt.Sprintf("Welcome back, %s!", u.Name))
	s.logger.Info("user logged in", slog.String("id", u.ID), slog.String("role", string(u.Role)))
	return true
}

func (s *Store) login(ctx context.Context, email, password string, role Role) (*User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return nil, err
	}
	i := indexOf(records, email, role)
	if i < 0 || !auth.CheckPassword(records[i].PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}
	u := records[i].User
	if err := s.repo.SaveSession(ctx, &u); err != nil {
		return nil, err
	}
	s.user = &u
	return &u, nil
}

// attempt runs op with the loading flag raised and the previous error
// cleared, after the simulated network delay. Panics from op surface as
// ErrOperationFailed.
func (s *Store) attempt(ctx context.Context, op func(context.Context) (*User, error)) (u *User, err error) {
	s.mu.Lock()
	s.started = true
	s.loading = true
	s.err = nil
	s.errMsg = ""
	s.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			u, err = nil, fmt.Errorf("%w: %v", ErrOperationFailed, r)
		}
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if err := s.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOperationFailed, err)
	}
	return op(ctx)
}

func (s *Store) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// fail records err on the session. Known errors keep their own message;
// anything else gets the generic one.
func (s *Store) fail(ctx context.Context, err error, generic string) bool {
	msg := generic
	switch {
	case errors.Is(err, ErrUserExists):
		msg = msgUserExists
	case errors.Is(err, ErrInvalidCredentials):
		msg = msgInvalidCredentials
	case !errors.Is(err, ErrOperationFailed):
		err = fmt.Errorf("%w: %v", ErrOperationFailed, err)
		fallthrough
	default:
		s.logger.Error(strings.ToLower(generic), slog.Any("err", err))
	}

	s.mu.Lock()
	s.err = err
	s.errMsg = msg
	s.mu.Unlock()

	s.notify(ctx, notify.KindError, msg)
	return false
}

// Logout forgets the session. Calling it while logged out is harmless.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	wasIn := s.user != nil
	s.user = nil
	s.err = nil
	s.errMsg = ""
	s.started = true
	err := s.repo.ClearSession(ctx)
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("logout", slog.Any("err", err))
		return err
	}
	if wasIn {
		s.notify(ctx, notify.KindInfo, "You have been logged out")
	}
	return nil
}

// UpdateProfile applies updates to the logged-in user and persists the
// result to both the session and the durable user set, keeping the stored
// password hash. It does nothing without a session user.
func (s *Store) UpdateProfile(ctx context.Context, updates ...ProfileUpdate) error {
	changed, err := s.updateProfile(ctx, updates)
	switch {
	case errors.Is(err, ErrUserExists):
		s.notify(ctx, notify.KindError, msgUserExists)
	case err != nil:
		s.logger.Error("update profile", slog.Any("err", err))
		s.notify(ctx, notify.KindError, "Profile update failed")
	case changed:
		s.notify(ctx, notify.KindSuccess, "Profile updated")
	}
	return err
}

func (s *Store) updateProfile(ctx context.Context, updates []ProfileUpdate) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return false, nil
	}
	next := *s.user
	for _, up := range updates {
		up.apply(&next)
	}
	if next.Email == "" {
		return false, ErrEmptyEmail
	}
	next.UpdatedAt = s.now().UTC()

	records, err := s.repo.LoadUsers(ctx)
	if err != nil {
		return false, err
	}
	if i := indexOf(records, next.Email, next.Role); i >= 0 && records[i].ID != next.ID {
		return false, ErrUserExists
	}
	for i := range records {
		if records[i].ID == next.ID {
			records[i].User = next
			if err := s.repo.SaveUsers(ctx, records); err != nil {
				return false, err
			}
			break
		}
	}
	if err := s.repo.SaveSession(ctx, &next); err != nil {
		return false, err
	}
	s.user = &next
	return true, nil
}

func (s *Store) notify(ctx context.Context, kind notify.Kind, text string) {
	s.sink.Notify(ctx, notify.New(kind, text))
}

func indexOf(records []storedUser, email string, role Role) int {
	for i, rec := range records {
		if rec.Email == email && rec.Role == role {
			return i
		}
	}
	return -1
}
