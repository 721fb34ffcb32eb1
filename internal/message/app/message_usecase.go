package app

import (
	"context"
	"time"

	"pairva_message_service/internal/message/domain"
	"pairva_message_service/internal/message/repository"
	"pairva_message_service/pkg"
	errprocess "pairva_message_service/pkg/err"
	"pairva_message_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	previewLength = 50

	defaultPageSize = 50
	maxPageSize     = 100

	// readBatchSize bounds one markConversationRead pass, callers re-run on
	// conversation open and the monotonic no-op rule avoids double work
	readBatchSize = 500
)

// MessageUseCase message business rules, the single writer of message records
type MessageUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	presence repository.PresenceRepository
	notifier repository.PushNotifier
}

// NewMessageUseCase init message use case, presence and notifier may be nil
func NewMessageUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	presence repository.PresenceRepository,
	notifier repository.PushNotifier,
) *MessageUseCase {
	return &MessageUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		presence: presence,
		notifier: notifier,
	}
}

// SendMessage persist one message with its delivery map at SENT and update the
// parent conversation's last message pointer, safe to call concurrently for
// the same conversation, ordering comes from the stored created_at
func (uc *MessageUseCase) SendMessage(ctx context.Context, conversationID, senderID, content string, msgType domain.MessageType, metadata map[string]interface{}) (*domain.Message, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, errprocess.NotFound("conversation not found")
	}
	if !conv.HasParticipant(senderID) {
		return nil, errprocess.Authorization("sender is not a participant of the conversation")
	}
	if conv.Status == domain.ConversationBlocked {
		return nil, errprocess.Authorization("conversation is blocked")
	}

	if msgType == "" {
		msgType = domain.MessageTypeText
	}
	if !domain.ValidMessageType(msgType) {
		return nil, errprocess.Validation("unknown message type")
	}
	if content == "" {
		return nil, errprocess.Validation("message content is required")
	}

	now := time.Now().UnixMilli()
	msg := &domain.Message{
		ID:             uuid.New().String(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Type:           msgType,
		Content:        content,
		Metadata:       metadata,
		CreatedAt:      now,
		DeliveryStatus: domain.NewDeliveryStatus(conv.Participants, senderID, now),
	}

	if err := uc.msgRepo.Insert(ctx, msg); err != nil {
		return nil, err
	}

	// new traffic reactivates an archived conversation
	if conv.Status == domain.ConversationArchived {
		if err := uc.convRepo.UpdateStatus(ctx, conversationID, domain.ConversationActive, now); err != nil {
			logger.Log.Errorf("reactivate conversation err:", err, zap.String("conversation_id", conversationID))
		}
	}

	last := domain.LastMessage{
		MessageID: msg.ID,
		Preview:   pkg.Truncate(content, previewLength),
		Timestamp: now,
	}
	if err := uc.convRepo.SetLastMessage(ctx, conversationID, last, now); err != nil {
		logger.Log.Errorf("update last message err:", err, zap.String("conversation_id", conversationID))
	}

	uc.dispatchPush(ctx, conv, msg)

	return msg, nil
}

// dispatchPush hand offline recipients to the push collaborator, best effort
func (uc *MessageUseCase) dispatchPush(ctx context.Context, conv *domain.Conversation, msg *domain.Message) {
	if uc.notifier == nil {
		return
	}
	for _, recipient := range conv.Recipients(msg.SenderID) {
		if uc.presence != nil {
			online, err := uc.presence.IsOnline(ctx, recipient)
			if err != nil {
				logger.Log.Errorf("presence check err:", err, zap.String("user_id", recipient))
			}
			if online {
				continue
			}
		}
		n := domain.PushNotification{
			RecipientID:    recipient,
			ConversationID: msg.ConversationID,
			MessageID:      msg.ID,
			SenderID:       msg.SenderID,
			Preview:        pkg.Truncate(msg.Content, previewLength),
			Timestamp:      msg.CreatedAt,
		}
		if err := uc.notifier.Notify(ctx, n); err != nil {
			logger.Log.Errorf("push notify err:", err, zap.String("user_id", recipient))
		}
	}
}

// GetMessages newest first, soft-deleted content is replaced by a placeholder,
// the record itself stays for ordering and ack purposes
func (uc *MessageUseCase) GetMessages(ctx context.Context, conversationID, userID string, limit, before, after int64) ([]domain.Message, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, errprocess.NotFound("conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return nil, errprocess.Authorization("user is not a participant of the conversation")
	}

	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}

	msgs, err := uc.msgRepo.FindByConversation(ctx, conversationID, limit, before, after)
	if err != nil {
		return nil, err
	}
	for i := range msgs {
		msgs[i].Redact()
	}
	return msgs, nil
}

// UpdateMessageStatus apply one monotonic delivery transition, a backwards or
// repeated transition returns the message unchanged so the call is safe to
// retry and safe to race
func (uc *MessageUseCase) UpdateMessageStatus(ctx context.Context, messageID, recipientID string, newStatus domain.DeliveryState) (*domain.Message, error) {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if msg == nil {
		return nil, errprocess.NotFound("message not found")
	}
	if recipientID == msg.SenderID {
		return nil, errprocess.Authorization("a sender cannot acknowledge its own message")
	}
	entry, ok := msg.RecipientStatus(recipientID)
	if !ok {
		return nil, errprocess.Authorization("user is not a recipient of the message")
	}

	if !domain.CanTransition(entry.Status, newStatus) {
		return msg, nil
	}

	now := time.Now().UnixMilli()
	applied, err := uc.msgRepo.UpdateDeliveryStatus(ctx, messageID, recipientID, newStatus, domain.LowerStates(newStatus), now)
	if err != nil {
		return nil, err
	}
	if applied {
		msg.DeliveryStatus[recipientID] = domain.DeliveryEntry{Status: newStatus, UpdatedAt: now}
	}
	return msg, nil
}

// MarkConversationRead transition every unread message of userID in the
// conversation to READ, bounded batch, idempotent, returns the changed
// messages so callers can emit read receipts to their senders
func (uc *MessageUseCase) MarkConversationRead(ctx context.Context, conversationID, userID string) ([]domain.Message, error) {
	conv, err := uc.convRepo.FindByID(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	if conv == nil {
		return nil, errprocess.NotFound("conversation not found")
	}
	if !conv.HasParticipant(userID) {
		return nil, errprocess.Authorization("user is not a participant of the conversation")
	}

	batch, err := uc.msgRepo.FindUnreadByRecipient(ctx, conversationID, userID, readBatchSize)
	if err != nil {
		return nil, err
	}
	if len(batch) == 0 {
		return nil, nil
	}

	ids := make([]string, 0, len(batch))
	for _, m := range batch {
		ids = append(ids, m.ID)
	}

	now := time.Now().UnixMilli()
	if _, err := uc.msgRepo.MarkRead(ctx, ids, userID, now); err != nil {
		return nil, err
	}

	for i := range batch {
		batch[i].DeliveryStatus[userID] = domain.DeliveryEntry{Status: domain.StatusRead, UpdatedAt: now}
	}
	return batch, nil
}

// SweepDelivered transition userID's pending SENT messages to DELIVERED,
// runs once per connect and on REST fetches, returns the applied messages so
// the gateway can push status updates to their senders
func (uc *MessageUseCase) SweepDelivered(ctx context.Context, userID string, conversationIDs []string, limit int64) ([]domain.Message, error) {
	if limit <= 0 {
		limit = readBatchSize
	}
	pending, err := uc.msgRepo.FindPendingByRecipient(ctx, userID, conversationIDs, limit)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	applied := make([]domain.Message, 0, len(pending))
	for _, msg := range pending {
		ok, err := uc.msgRepo.UpdateDeliveryStatus(ctx, msg.ID, userID, domain.StatusDelivered, []domain.DeliveryState{domain.StatusSent}, now)
		if err != nil {
			logger.Log.Errorf("sweep delivered err:", err, zap.String("message_id", msg.ID))
			continue
		}
		if ok {
			msg.DeliveryStatus[userID] = domain.DeliveryEntry{Status: domain.StatusDelivered, UpdatedAt: now}
			applied = append(applied, msg)
		}
	}
	return applied, nil
}

// DeleteMessage soft delete, original sender only
func (uc *MessageUseCase) DeleteMessage(ctx context.Context, messageID, userID string) error {
	msg, err := uc.msgRepo.FindByID(ctx, messageID)
	if err != nil {
		return err
	}
	if msg == nil {
		return errprocess.NotFound("message not found")
	}
	if msg.SenderID != userID {
		return errprocess.Authorization("only the sender can delete a message")
	}
	return uc.msgRepo.SetDeleted(ctx, messageID, time.Now().UnixMilli())
}

// GetUnreadCount count of messages where userID is a recipient not at READ
func (uc *MessageUseCase) GetUnreadCount(ctx context.Context, userID string) (int64, error) {
	return uc.msgRepo.CountUnread(ctx, userID)
}
