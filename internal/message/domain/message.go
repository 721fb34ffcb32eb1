package domain

// MessageType definition message content type
type MessageType string

const (
	//MessageTypeText plain text content
	MessageTypeText MessageType = "TEXT"
	//MessageTypeImage content is an URL, binary upload is a separate service
	MessageTypeImage MessageType = "IMAGE"
	//MessageTypeSystem generated by the platform, not a participant
	MessageTypeSystem MessageType = "SYSTEM"
	//MessageTypeLocation content is an encoded coordinate
	MessageTypeLocation MessageType = "LOCATION"
)

// ValidMessageType check t is a known message type
func ValidMessageType(t MessageType) bool {
	switch t {
	case MessageTypeText, MessageTypeImage, MessageTypeSystem, MessageTypeLocation:
		return true
	}
	return false
}

// DeliveryState per recipient delivery status
type DeliveryState string

const (
	//StatusSent message persisted, recipient not yet reached
	StatusSent DeliveryState = "SENT"
	//StatusDelivered message reached the recipient's client
	StatusDelivered DeliveryState = "DELIVERED"
	//StatusRead recipient opened the conversation, terminal
	StatusRead DeliveryState = "READ"
	//StatusFailed delivery gave up, terminal
	StatusFailed DeliveryState = "FAILED"
)

// RankOf rank a delivery state, higher rank always wins
func RankOf(s DeliveryState) int {
	switch s {
	case StatusSent:
		return 0
	case StatusDelivered:
		return 1
	case StatusRead:
		return 2
	case StatusFailed:
		return 3
	}
	return -1
}

// CanTransition report whether from -> to moves the status forward
// a transition to an already reached or lower status is a no-op, never an error
func CanTransition(from, to DeliveryState) bool {
	if from == StatusRead || from == StatusFailed {
		return false
	}
	return RankOf(to) > RankOf(from)
}

// LowerStates the states ranked strictly below s, used as the
// compare-and-set filter of conditional store updates
func LowerStates(s DeliveryState) []DeliveryState {
	all := []DeliveryState{StatusSent, StatusDelivered, StatusRead, StatusFailed}
	out := make([]DeliveryState, 0, len(all))
	for _, v := range all {
		if RankOf(v) < RankOf(s) && v != StatusRead && v != StatusFailed {
			out = append(out, v)
		}
	}
	return out
}

// DeliveryEntry one recipient's delivery status and last transition time
type DeliveryEntry struct {
	Status    DeliveryState `bson:"status" json:"status"`
	UpdatedAt int64         `bson:"updated_at" json:"updated_at"`
}

// DeletedPlaceholder shown instead of content once a message is soft-deleted
const DeletedPlaceholder = "This message has been deleted"

// Message one unit of content within a conversation
type Message struct {
	ID             string                 `bson:"_id,omitempty" json:"id"`
	ConversationID string                 `bson:"conversation_id" json:"conversation_id"`
	SenderID       string                 `bson:"sender_id" json:"sender_id"`
	Type           MessageType            `bson:"type" json:"type"`
	Content        string                 `bson:"content" json:"content"`
	Deleted        bool                   `bson:"deleted" json:"deleted"`
	DeletedAt      int64                  `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	Metadata       map[string]interface{} `bson:"metadata,omitempty" json:"metadata,omitempty"`
	CreatedAt      int64                  `bson:"created_at" json:"created_at"` // unix millis, store ordering key
	// DeliveryStatus one entry per recipient, the sender never has an entry
	DeliveryStatus map[string]DeliveryEntry `bson:"delivery_status" json:"delivery_status"`
}

// NewDeliveryStatus init the delivery map, every recipient at SENT
func NewDeliveryStatus(participants []string, senderID string, now int64) map[string]DeliveryEntry {
	m := make(map[string]DeliveryEntry, len(participants))
	for _, p := range participants {
		if p == senderID {
			continue
		}
		m[p] = DeliveryEntry{Status: StatusSent, UpdatedAt: now}
	}
	return m
}

// RecipientStatus get userID's delivery entry, false when userID is not a recipient
func (m *Message) RecipientStatus(userID string) (DeliveryEntry, bool) {
	e, ok := m.DeliveryStatus[userID]
	return e, ok
}

// Redact replace soft-deleted content by the placeholder, the record itself
// stays for ordering and ack purposes
func (m *Message) Redact() {
	if m.Deleted {
		m.Content = DeletedPlaceholder
		m.Metadata = nil
	}
}

// PushNotification record handed to the push dispatch collaborator
type PushNotification struct {
	RecipientID    string `json:"recipient_id"`
	ConversationID string `json:"conversation_id"`
	MessageID      string `json:"message_id"`
	SenderID       string `json:"sender_id"`
	Preview        string `json:"preview"`
	Timestamp      int64  `json:"timestamp"`
}

// Presence volatile record of a user's live gateway connection
type Presence struct {
	UserID      string `json:"user_id"`
	ConnectedAt int64  `json:"connected_at"`
}
