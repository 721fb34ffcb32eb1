package app

import (
	"context"

	"pairva_message_service/internal/message/domain"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// Insert moke create conversation
func (m *MockConversationRepository) Insert(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

// FindByID moke find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	args := m.Called(ctx, conversationID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByParticipantKey moke find conversation by participant set
func (m *MockConversationRepository) FindByParticipantKey(ctx context.Context, key string) (*domain.Conversation, error) {
	args := m.Called(ctx, key)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindActiveByParticipant moke list active conversations
func (m *MockConversationRepository) FindActiveByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateStatus moke set conversation status
func (m *MockConversationRepository) UpdateStatus(ctx context.Context, conversationID string, status domain.ConversationStatus, updatedAt int64) error {
	args := m.Called(ctx, conversationID, status, updatedAt)
	return args.Error(0)
}

// SetLastMessage moke set last message pointer
func (m *MockConversationRepository) SetLastMessage(ctx context.Context, conversationID string, last domain.LastMessage, updatedAt int64) error {
	args := m.Called(ctx, conversationID, last, updatedAt)
	return args.Error(0)
}

// EnsureIndexes moke create indexes
func (m *MockConversationRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert moke insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByID moke find message by id
func (m *MockMessageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	args := m.Called(ctx, messageID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// FindByConversation moke page conversation messages
func (m *MockMessageRepository) FindByConversation(ctx context.Context, conversationID string, limit int64, before, after int64) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID, limit, before, after)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdateDeliveryStatus moke conditional status write
func (m *MockMessageRepository) UpdateDeliveryStatus(ctx context.Context, messageID, recipientID string, newStatus domain.DeliveryState, allowedCurrent []domain.DeliveryState, ts int64) (bool, error) {
	args := m.Called(ctx, messageID, recipientID, newStatus, allowedCurrent, ts)
	return args.Bool(0), args.Error(1)
}

// FindUnreadByRecipient moke find unread msg in conversation
func (m *MockMessageRepository) FindUnreadByRecipient(ctx context.Context, conversationID, userID string, limit int64) ([]domain.Message, error) {
	args := m.Called(ctx, conversationID, userID, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkRead moke batch read transition
func (m *MockMessageRepository) MarkRead(ctx context.Context, messageIDs []string, userID string, ts int64) (int64, error) {
	args := m.Called(ctx, messageIDs, userID, ts)
	return args.Get(0).(int64), args.Error(1)
}

// FindPendingByRecipient moke find msg pending delivery
func (m *MockMessageRepository) FindPendingByRecipient(ctx context.Context, userID string, conversationIDs []string, limit int64) ([]domain.Message, error) {
	args := m.Called(ctx, userID, conversationIDs, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Message), args.Error(1)
	}
	return nil, args.Error(1)
}

// CountUnread moke count unread by user id
func (m *MockMessageRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

// SetDeleted moke soft delete message
func (m *MockMessageRepository) SetDeleted(ctx context.Context, messageID string, ts int64) error {
	args := m.Called(ctx, messageID, ts)
	return args.Error(0)
}

// EnsureIndexes moke create indexes
func (m *MockMessageRepository) EnsureIndexes(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// Up moke mark online
func (m *MockPresenceRepository) Up(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// Refresh moke extend presence ttl
func (m *MockPresenceRepository) Refresh(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// Down moke mark offline
func (m *MockPresenceRepository) Down(ctx context.Context, userID string) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// IsOnline moke check online
func (m *MockPresenceRepository) IsOnline(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

// MockPushNotifier Mock PushNotifier
type MockPushNotifier struct {
	mock.Mock
}

// Notify moke emit push notification
func (m *MockPushNotifier) Notify(ctx context.Context, n domain.PushNotification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}
