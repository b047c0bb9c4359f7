package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hackhub/internal/notify"
)

const DefaultReplyDelay = 800 * time.Millisecond

var (
	ErrConversationNotFound = errors.New("conversation not found")
	ErrClosed               = errors.New("conversation store closed")
)

// Timer is a pending scheduled callback.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f to run once after d.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Store holds the inbox of the current session and simulates the other
// side of each conversation. It is safe for concurrent use.
type Store struct {
	seed      SeedProvider
	sink      notify.Sink
	logger    *slog.Logger
	delay     time.Duration
	phrases   []string
	pick      func(n int) int
	afterFunc AfterFunc
	now       func() time.Time
	newID     func() string

	mu       sync.Mutex
	selfID   string
	convs    []*Conversation
	activeID string
	draft    string
	// pending replies, per conversation, keyed by reply token
	pending map[string]map[uint64]Timer
	nextTok uint64
	gen     uint64
	closed  bool
}

type Option func(*Store)

func WithNotifier(s notify.Sink) Option { return func(st *Store) { st.sink = s } }

func WithLogger(l *slog.Logger) Option { return func(st *Store) { st.logger = l } }

func WithReplyDelay(d time.Duration) Option { return func(st *Store) { st.delay = d } }

// WithScheduler replaces time.AfterFunc for synthetic replies.
func WithScheduler(f AfterFunc) Option { return func(st *Store) { st.afterFunc = f } }

// WithPicker replaces the uniform phrase picker; pick(n) must return a
// value in [0, n).
func WithPicker(pick func(n int) int) Option { return func(st *Store) { st.pick = pick } }

func WithPhrases(p []string) Option { return func(st *Store) { st.phrases = p } }

func WithClock(now func() time.Time) Option { return func(st *Store) { st.now = now } }

func NewStore(seed SeedProvider, opts ...Option) *Store {
	s := &Store{
		seed:      seed,
		sink:      notify.Discard,
		logger:    slog.Default(),
		delay:     DefaultReplyDelay,
		phrases:   replyPhrases,
		pick:      rand.IntN,
		afterFunc: realAfterFunc,
		now:       time.Now,
		newID:     uuid.NewString,
		pending:   make(map[string]map[uint64]Timer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize loads the inbox for selfID from the seed provider and selects
// the first conversation. Replies pending from a previous session are
// cancelled.
func (s *Store) Initialize(ctx context.Context, selfID string) error {
	convs, err := s.seed.Conversations(ctx, selfID)
	if err != nil {
		return fmt.Errorf("load conversations: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	s.cancelAllLocked()
	s.gen++

	s.selfID = selfID
	s.convs = make([]*Conversation, 0, len(convs))
	for i := range convs {
		c := convs[i].clone()
		for j := range c.Messages {
			if c.Messages[j].SenderID == SelfSender {
				c.Messages[j].SenderID = selfID
			}
		}
		c.recount(selfID)
		s.convs = append(s.convs, &c)
	}
	s.activeID = ""
	s.draft = ""
	if len(s.convs) > 0 {
		s.selectLocked(s.convs[0])
	}
	return nil
}

// SelfID returns the session user the store was initialized for.
func (s *Store) SelfID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selfID
}

// Select makes id the active conversation and marks all of it read.
func (s *Store) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(id)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	s.selectLocked(c)
	return nil
}

func (s *Store) selectLocked(c *Conversation) {
	s.activeID = c.ID
	markRead(c, s.selfID)
}

// MarkRead marks every message in id read without changing the selection.
func (s *Store) MarkRead(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(id)
	if c == nil {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, id)
	}
	markRead(c, s.selfID)
	return nil
}

func markRead(c *Conversation, selfID string) {
	for i := range c.Messages {
		c.Messages[i].Read = true
	}
	c.recount(selfID)
}

func (s *Store) SetDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = text
}

func (s *Store) Draft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SendDraft sends the compose buffer.
func (s *Store) SendDraft(ctx context.Context) bool {
	return s.Send(ctx, s.Draft())
}

// Send appends text from the local user to the active conversation and
// schedules a synthetic reply into that same conversation. Blank text, or
// no active conversation, leaves everything untouched.
func (s *Store) Send(ctx context.Context, text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}

	s.mu.Lock()
	c := s.findLocked(s.activeID)
	if s.closed || c == nil {
		s.mu.Unlock()
		return false
	}
	msg := Message{
		ID:         s.newID(),
		SenderID:   s.selfID,
		SenderName: SelfName,
		Content:    text,
		Timestamp:  s.now().UTC(),
		Read:       true,
	}
	c.Messages = append(c.Messages, msg)
	c.recount(s.selfID)
	s.draft = ""
	s.scheduleReplyLocked(c.ID)
	name := c.ParticipantName
	s.mu.Unlock()

	s.sink.Notify(ctx, notify.New(notify.KindInfo, "Message sent to "+name))
	return true
}

func (s *Store) scheduleReplyLocked(convID string) {
	s.nextTok++
	tok, gen := s.nextTok, s.gen
	if s.pending[convID] == nil {
		s.pending[convID] = make(map[uint64]Timer)
	}
	// Hold the lock across scheduling so a zero-delay callback cannot run
	// before its timer is registered.
	s.pending[convID][tok] = s.afterFunc(s.delay, func() { s.deliverReply(gen, convID, tok) })
}

// deliverReply appends a synthetic counterpart message to convID. It is a
// no-op when the reply was cancelled, the store was closed or re-initialized
// since scheduling, or the conversation is gone.
func (s *Store) deliverReply(gen uint64, convID string, tok uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed || gen != s.gen {
		return
	}
	// A reply cancelled after its callback was already running is no
	// longer pending and must not land.
	p := s.pending[convID]
	if _, ok := p[tok]; !ok {
		return
	}
	delete(p, tok)
	if len(p) == 0 {
		delete(s.pending, convID)
	}
	c := s.findLocked(convID)
	if c == nil || len(s.phrases) == 0 {
		return
	}
	c.Messages = append(c.Messages, Message{
		ID:           s.newID(),
		SenderID:     c.ParticipantID,
		SenderName:   c.ParticipantName,
		SenderAvatar: c.ParticipantAvatar,
		Content:      s.phrases[s.pick(len(s.phrases))],
		Timestamp:    s.now().UTC(),
	})
	c.recount(s.selfID)
	s.logger.Debug("synthetic reply", slog.String("conversation", convID))
}

// Pending reports how many replies are scheduled for convID.
func (s *Store) Pending(convID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending[convID])
}

// CancelReplies stops every reply still pending for convID.
func (s *Store) CancelReplies(convID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.pending[convID] {
		t.Stop()
	}
	delete(s.pending, convID)
}

func (s *Store) cancelAllLocked() {
	for id, p := range s.pending {
		for _, t := range p {
			t.Stop()
		}
		delete(s.pending, id)
	}
}

// Reset forgets the session's inbox and cancels pending replies. The store
// can be initialized again afterwards.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAllLocked()
	s.gen++
	s.selfID = ""
	s.convs = nil
	s.activeID = ""
	s.draft = ""
}

// Close resets the store for good.
func (s *Store) Close() {
	s.Reset()
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Conversations returns copies of every conversation, in order.
func (s *Store) Conversations() []Conversation {
	return s.Filter("")
}

// Filter returns the conversations whose participant name contains query,
// ignoring case. The store is not modified.
func (s *Store) Filter(query string) []Conversation {
	q := strings.ToLower(strings.TrimSpace(query))

	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Conversation, 0, len(s.convs))
	for _, c := range s.convs {
		if q == "" || strings.Contains(strings.ToLower(c.ParticipantName), q) {
			out = append(out, c.clone())
		}
	}
	return out
}

// Conversation returns a copy of one conversation.
func (s *Store) Conversation(id string) (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(id)
	if c == nil {
		return Conversation{}, false
	}
	return c.clone(), true
}

// Active returns a copy of the active conversation, if any.
func (s *Store) Active() (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.findLocked(s.activeID)
	if c == nil {
		return Conversation{}, false
	}
	return c.clone(), true
}

func (s *Store) findLocked(id string) *Conversation {
	if id == "" {
		return nil
	}
	for _, c := range s.convs {
		if c.ID == id {
			return c
		}
	}
	return nil
}
