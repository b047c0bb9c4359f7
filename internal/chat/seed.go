package chat

import (
	"context"
	"time"
)

// SeedProvider supplies the initial inbox for a session user.
type SeedProvider interface {
	Conversations(ctx context.Context, selfID string) ([]Conversation, error)
}

// StaticSeed is a fixed inbox: a mentor, a sponsor company and a college
// organiser reaching out about hackathons. Timestamps are relative to Now.
type StaticSeed struct {
	Now func() time.Time
}

func (s StaticSeed) Conversations(_ context.Context, _ string) ([]Conversation, error) {
	now := time.Now
	if s.Now != nil {
		now = s.Now
	}
	t := now().UTC()
	ago := func(d time.Duration) time.Time { return t.Add(-d) }

	return []Conversation{
		{
			ID:                "conv-mentor-priya",
			ParticipantID:     "mentor-priya",
			ParticipantName:   "Priya Sharma",
			ParticipantAvatar: "https://api.dicebear.com/7.x/initials/svg?seed=PS",
			ParticipantRole:   "mentor",
			Messages: []Message{
				{ID: "m-1", SenderID: SelfSender, SenderName: SelfName, Content: "Hi Priya, could you look at our pitch deck before Saturday?", Timestamp: ago(3 * time.Hour), Read: true},
				{ID: "m-2", SenderID: "mentor-priya", SenderName: "Priya Sharma", Content: "Of course! Send it over and I'll leave comments tonight.", Timestamp: ago(2 * time.Hour)},
				{ID: "m-3", SenderID: "mentor-priya", SenderName: "Priya Sharma", Content: "Also, keep the demo under three minutes.", Timestamp: ago(time.Hour)},
			},
		},
		{
			ID:                "conv-company-nimbus",
			ParticipantID:     "company-nimbus",
			ParticipantName:   "Nimbus Labs",
			ParticipantAvatar: "https://api.dicebear.com/7.x/initials/svg?seed=NL",
			ParticipantRole:   "company",
			Messages: []Message{
				{ID: "m-4", SenderID: "company-nimbus", SenderName: "Nimbus Labs", Content: "Thanks for registering for CloudHack 2026. API keys go out on Friday.", Timestamp: ago(26 * time.Hour)},
				{ID: "m-5", SenderID: SelfSender, SenderName: SelfName, Content: "Great, is there a rate limit on the sandbox?", Timestamp: ago(25 * time.Hour), Read: true},
				{ID: "m-6", SenderID: "company-nimbus", SenderName: "Nimbus Labs", Content: "100 requests per minute per team.", Timestamp: ago(24 * time.Hour), Read: true},
			},
		},
		{
			ID:                "conv-college-riverside",
			ParticipantID:     "college-riverside",
			ParticipantName:   "Riverside College",
			ParticipantAvatar: "https://api.dicebear.com/7.x/initials/svg?seed=RC",
			ParticipantRole:   "college",
			Messages: []Message{
				{ID: "m-7", SenderID: "college-riverside", SenderName: "Riverside College", Content: "Venue doors open at 8am. Bring your student ID.", Timestamp: ago(72 * time.Hour)},
			},
		},
	}, nil
}

// replyPhrases are the canned synthetic replies.
var replyPhrases = []string{
	"Thanks for reaching out! I'll get back to you soon.",
	"That sounds great, let's discuss it further.",
	"Interesting idea! Can you share more details?",
	"I'll review this and follow up shortly.",
	"Perfect, looking forward to it!",
}
