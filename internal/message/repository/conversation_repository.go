package repository

import (
	"context"
	"errors"

	"pairva_message_service/internal/message/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository definition conversation store access
type ConversationRepository interface {
	Insert(ctx context.Context, conv *domain.Conversation) error
	FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error)
	FindByParticipantKey(ctx context.Context, key string) (*domain.Conversation, error)
	// FindActiveByParticipant list userID's ACTIVE conversations, newest activity first
	FindActiveByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error)
	UpdateStatus(ctx context.Context, conversationID string, status domain.ConversationStatus, updatedAt int64) error
	SetLastMessage(ctx context.Context, conversationID string, last domain.LastMessage, updatedAt int64) error
	EnsureIndexes(ctx context.Context) error
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create a ConversationRepository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection("conversations"),
	}
}

// EnsureIndexes unique participant_key keeps one conversation per participant set
func (r *conversationRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "participant_key", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "participants", Value: 1}, {Key: "status", Value: 1}},
		},
	})
	return err
}

// Insert create conversation
func (r *conversationRepository) Insert(ctx context.Context, conv *domain.Conversation) error {
	_, err := r.coll.InsertOne(ctx, conv)
	return err
}

// FindByID find conversation by id, nil when missing
func (r *conversationRepository) FindByID(ctx context.Context, conversationID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": conversationID}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindByParticipantKey find the conversation owning the participant set, nil when missing
func (r *conversationRepository) FindByParticipantKey(ctx context.Context, key string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"participant_key": key}).Decode(&conv)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// FindActiveByParticipant list ACTIVE conversations of userID
func (r *conversationRepository) FindActiveByParticipant(ctx context.Context, userID string) ([]domain.Conversation, error) {
	filter := bson.M{
		"participants": userID,
		"status":       domain.ConversationActive,
	}
	opts := options.Find().SetSort(bson.M{"updated_at": -1})
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var convs []domain.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// UpdateStatus set conversation status
func (r *conversationRepository) UpdateStatus(ctx context.Context, conversationID string, status domain.ConversationStatus, updatedAt int64) error {
	update := bson.M{"$set": bson.M{"status": status, "updated_at": updatedAt}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": conversationID}, update)
	return err
}

// SetLastMessage update the denormalized last message pointer
func (r *conversationRepository) SetLastMessage(ctx context.Context, conversationID string, last domain.LastMessage, updatedAt int64) error {
	update := bson.M{"$set": bson.M{"last_message": last, "updated_at": updatedAt}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": conversationID}, update)
	return err
}
