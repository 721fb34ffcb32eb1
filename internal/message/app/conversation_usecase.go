package app

import (
	"context"
	"time"

	"pairva_message_service/internal/message/domain"
	"pairva_message_service/internal/message/repository"
	errprocess "pairva_message_service/pkg/err"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"
)

// ConversationUseCase conversation business rules over the durable store
type ConversationUseCase struct {
	convRepo repository.ConversationRepository
}

// NewConversationUseCase init conversation use case
func NewConversationUseCase(convRepo repository.ConversationRepository) *ConversationUseCase {
	return &ConversationUseCase{
		convRepo: convRepo,
	}
}

// CreateConversation idempotent by participant set, a set that already owns an
// ACTIVE conversation gets the existing one back, an ARCHIVED one is reactivated
func (uc *ConversationUseCase) CreateConversation(ctx context.Context, participantIDs []string, metadata map[string]interface{}) (*domain.Conversation, error) {
	participants := domain.NormalizeParticipants(participantIDs)
	if len(participants) < 2 {
		return nil, errprocess.Validation("conversation requires at least 2 distinct participants")
	}

	key := domain.BuildParticipantKey(participants)
	existing, err := uc.convRepo.FindByParticipantKey(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == domain.ConversationArchived {
			now := time.Now().UnixMilli()
			if err := uc.convRepo.UpdateStatus(ctx, existing.ID, domain.ConversationActive, now); err != nil {
				return nil, err
			}
			existing.Status = domain.ConversationActive
			existing.UpdatedAt = now
		}
		// BLOCKED stays blocked, ACTIVE is returned as is
		return existing, nil
	}

	now := time.Now().UnixMilli()
	conv := &domain.Conversation{
		ID:             uuid.New().String(),
		Participants:   participants,
		ParticipantKey: key,
		Status:         domain.ConversationActive,
		Metadata:       metadata,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := uc.convRepo.Insert(ctx, conv); err != nil {
		// two callers raced on the same participant set, the unique index
		// keeps one winner, hand back the stored record
		if mongo.IsDuplicateKeyError(err) {
			return uc.convRepo.FindByParticipantKey(ctx, key)
		}
		return nil, err
	}
	return conv, nil
}

// GetConversations list userID's ACTIVE conversations
func (uc *ConversationUseCase) GetConversations(ctx context.Context, userID string) ([]domain.Conversation, error) {
	return uc.convRepo.FindActiveByParticipant(ctx, userID)
}

// ArchiveConversation hide the conversation from lists, participants only
func (uc *ConversationUseCase) ArchiveConversation(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
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

	now := time.Now().UnixMilli()
	if err := uc.convRepo.UpdateStatus(ctx, conversationID, domain.ConversationArchived, now); err != nil {
		return nil, err
	}
	conv.Status = domain.ConversationArchived
	conv.UpdatedAt = now
	return conv, nil
}
