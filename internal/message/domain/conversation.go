package domain

import (
	"sort"
	"strings"
)

// ConversationStatus definition conversation lifecycle
type ConversationStatus string

const (
	//ConversationActive conversation accepts traffic
	ConversationActive ConversationStatus = "ACTIVE"
	//ConversationArchived conversation hidden from lists, reactivated on new traffic
	ConversationArchived ConversationStatus = "ARCHIVED"
	//ConversationBlocked conversation rejects traffic
	ConversationBlocked ConversationStatus = "BLOCKED"
)

// LastMessage denormalized pointer for conversation list rendering
type LastMessage struct {
	MessageID string `bson:"message_id" json:"message_id"`
	Preview   string `bson:"preview" json:"preview"` // at most 50 runes
	Timestamp int64  `bson:"timestamp" json:"timestamp"`
}

// Conversation definition a persistent thread between a fixed set of participants
type Conversation struct {
	ID           string   `bson:"_id,omitempty" json:"id"`
	Participants []string `bson:"participants" json:"participants"` // stored sorted, >=2, no duplicates
	// ParticipantKey is the canonical identity of the participant set,
	// a unique index on it makes createConversation idempotent per set
	ParticipantKey string                 `bson:"participant_key" json:"-"`
	Status         ConversationStatus     `bson:"status" json:"status"`
	LastMessage    *LastMessage           `bson:"last_message,omitempty" json:"last_message,omitempty"`
	Metadata       map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt      int64                  `bson:"created_at" json:"created_at"` // unix millis
	UpdatedAt      int64                  `bson:"updated_at" json:"updated_at"`
}

// BuildParticipantKey sort a copy of ids and join them into the canonical set key
func BuildParticipantKey(ids []string) string {
	sorted := make([]string, len(ids))
	copy(sorted, ids)
	sort.Strings(sorted)
	return strings.Join(sorted, ":")
}

// NormalizeParticipants sort and deduplicate participant ids
func NormalizeParticipants(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// HasParticipant check userID is part of the conversation
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}

// Recipients every participant except senderID
func (c *Conversation) Recipients(senderID string) []string {
	out := make([]string, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p != senderID {
			out = append(out, p)
		}
	}
	return out
}
