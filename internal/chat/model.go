package chat

import "time"

// SelfSender stands in for the local user's id in seed data. The store
// replaces it with the session user id on Initialize.
const SelfSender = "@self"

// SelfName is the sender name on messages the local user sends.
const SelfName = "You"

type Message struct {
	ID           string    `json:"id"`
	SenderID     string    `json:"senderId"`
	SenderName   string    `json:"senderName"`
	SenderAvatar string    `json:"senderAvatar,omitempty"`
	Content      string    `json:"content"`
	Timestamp    time.Time `json:"timestamp"`
	Read         bool      `json:"read"`
}

type Conversation struct {
	ID                string    `json:"id"`
	ParticipantID     string    `json:"participantId"`
	ParticipantName   string    `json:"participantName"`
	ParticipantAvatar string    `json:"participantAvatar,omitempty"`
	ParticipantRole   string    `json:"participantRole"`
	LastMessage       *Message  `json:"lastMessage,omitempty"`
	UnreadCount       int       `json:"unreadCount"`
	Messages          []Message `json:"messages"`
}

func (c *Conversation) clone() Conversation {
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	if c.LastMessage != nil {
		m := *c.LastMessage
		out.LastMessage = &m
	}
	return out
}

// recount restores the invariant that UnreadCount is the number of unread
// messages not sent by self, and that LastMessage is the newest message.
func (c *Conversation) recount(selfID string) {
	n := 0
	for _, m := range c.Messages {
		if !m.Read && m.SenderID != selfID {
			n++
		}
	}
	c.UnreadCount = n
	if len(c.Messages) > 0 {
		m := c.Messages[len(c.Messages)-1]
		c.LastMessage = &m
	} else {
		c.LastMessage = nil
	}
}

// SendRequest is the body of POST /api/messages.
type SendRequest struct {
	Content string `json:"content"`
}

type InboxResponse struct {
	ActiveID      string         `json:"activeId,omitempty"`
	Conversations []Conversation `json:"conversations"`
}
