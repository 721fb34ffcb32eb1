package domain

import "encoding/json"

// EventName websocket event name, a closed set
type EventName string

const (
	// EventSendMessage client event send-message
	EventSendMessage EventName = "send-message"
	// EventReadMessages client event read-messages
	EventReadMessages EventName = "read-messages"
	// EventTyping client event typing
	EventTyping EventName = "typing"
	// EventCreateConversation client event create-conversation
	EventCreateConversation EventName = "create-conversation"
	// EventArchiveConversation client event archive-conversation
	EventArchiveConversation EventName = "archive-conversation"

	// EventNewMessage server event new-message
	EventNewMessage EventName = "new-message"
	// EventMessageStatusUpdate server event message-status-update
	EventMessageStatusUpdate EventName = "message-status-update"
	// EventMessagesRead server event messages-read
	EventMessagesRead EventName = "messages-read"
	// EventUserTyping server event user-typing
	EventUserTyping EventName = "user-typing"
	// EventNewConversation server event new-conversation
	EventNewConversation EventName = "new-conversation"
	// EventConnectionSuccess server event connection-success
	EventConnectionSuccess EventName = "connection-success"
	// EventError server event error
	EventError EventName = "error"
)

// WSRequest websocket inbound envelope, Data is decoded per event
type WSRequest struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// SendMessageReq payload of send-message
type SendMessageReq struct {
	ConversationID string                 `json:"conversation_id"`
	Content        string                 `json:"content"`
	Type           string                 `json:"type,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ReadMessagesReq payload of read-messages
type ReadMessagesReq struct {
	ConversationID string `json:"conversation_id"`
}

// TypingReq payload of typing
type TypingReq struct {
	ConversationID string `json:"conversation_id"`
	IsTyping       bool   `json:"is_typing"`
}

// CreateConversationReq payload of create-conversation
type CreateConversationReq struct {
	ParticipantIDs []string               `json:"participant_ids"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ArchiveConversationReq payload of archive-conversation
type ArchiveConversationReq struct {
	ConversationID string `json:"conversation_id"`
}

// WSResponse websocket outbound envelope
type WSResponse struct {
	Event   string      `json:"event"`
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// MessageAck sender ack of send-message
type MessageAck struct {
	MessageID string `json:"message_id"`
	Timestamp int64  `json:"timestamp"`
}

// NewMessageEvent payload of new-message
type NewMessageEvent struct {
	Message Message `json:"message"`
}

// MessageStatusUpdateEvent payload of message-status-update, pushed to the sender
type MessageStatusUpdateEvent struct {
	ConversationID string        `json:"conversation_id"`
	MessageID      string        `json:"message_id"`
	RecipientID    string        `json:"recipient_id"`
	Status         DeliveryState `json:"status"`
	Timestamp      int64         `json:"timestamp"`
}

// MessagesReadEvent payload of messages-read, pushed to the sender only
type MessagesReadEvent struct {
	ConversationID string   `json:"conversation_id"`
	MessageIDs     []string `json:"message_ids"`
	ReaderID       string   `json:"reader_id"`
	Timestamp      int64    `json:"timestamp"`
}

// UserTypingEvent payload of user-typing, never persisted
type UserTypingEvent struct {
	ConversationID string `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
	Timestamp      int64  `json:"timestamp"`
}

// NewConversationEvent payload of new-conversation
type NewConversationEvent struct {
	Conversation Conversation `json:"conversation"`
}

// ConnectionSuccessEvent payload of connection-success
type ConnectionSuccessEvent struct {
	UserID          string   `json:"user_id"`
	ConversationIDs []string `json:"conversation_ids"`
}
