package repository

import (
	"context"
	"errors"
	"fmt"

	"pairva_message_service/internal/message/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition message store access
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.Message) error
	FindByID(ctx context.Context, messageID string) (*domain.Message, error)
	// FindByConversation page messages newest first, before/after filter on created_at (unix millis, 0 = unset)
	FindByConversation(ctx context.Context, conversationID string, limit int64, before, after int64) ([]domain.Message, error)
	// UpdateDeliveryStatus compare-and-set one recipient's status, applied only while the
	// current status is in allowedCurrent, reports whether the write happened
	UpdateDeliveryStatus(ctx context.Context, messageID, recipientID string, newStatus domain.DeliveryState, allowedCurrent []domain.DeliveryState, ts int64) (bool, error)
	// FindUnreadByRecipient messages of one conversation where userID is a recipient not at READ
	FindUnreadByRecipient(ctx context.Context, conversationID, userID string, limit int64) ([]domain.Message, error)
	// MarkRead batch transition the given messages to READ for userID
	MarkRead(ctx context.Context, messageIDs []string, userID string, ts int64) (int64, error)
	// FindPendingByRecipient messages across conversations where userID is a recipient still at SENT
	FindPendingByRecipient(ctx context.Context, userID string, conversationIDs []string, limit int64) ([]domain.Message, error)
	// CountUnread count of not soft-deleted messages where userID is a recipient not at READ
	CountUnread(ctx context.Context, userID string) (int64, error)
	SetDeleted(ctx context.Context, messageID string, ts int64) error
	EnsureIndexes(ctx context.Context) error
}

type messageRepository struct {
	coll *mongo.Collection
}

// NewMongoMessageRepository create a MessageRepository
func NewMongoMessageRepository(db *mongo.Database) MessageRepository {
	return &messageRepository{
		coll: db.Collection("messages"),
	}
}

// statusKey delivery map path of one recipient
func statusKey(userID string) string {
	return fmt.Sprintf("delivery_status.%s.status", userID)
}

func entryKey(userID string) string {
	return fmt.Sprintf("delivery_status.%s", userID)
}

// EnsureIndexes (conversation_id, created_at desc) for ordered pagination,
// plus the recipient lookup path for unread scans
func (r *messageRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "conversation_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	return err
}

// Insert write one message
func (r *messageRepository) Insert(ctx context.Context, msg *domain.Message) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

// FindByID find message by id, nil when missing
func (r *messageRepository) FindByID(ctx context.Context, messageID string) (*domain.Message, error) {
	var msg domain.Message
	err := r.coll.FindOne(ctx, bson.M{"_id": messageID}).Decode(&msg)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// FindByConversation newest first, created_at is the ordering key not arrival order
func (r *messageRepository) FindByConversation(ctx context.Context, conversationID string, limit int64, before, after int64) ([]domain.Message, error) {
	filter := bson.M{"conversation_id": conversationID}
	created := bson.M{}
	if before > 0 {
		created["$lt"] = before
	}
	if after > 0 {
		created["$gt"] = after
	}
	if len(created) > 0 {
		filter["created_at"] = created
	}

	opts := options.Find().SetSort(bson.M{"created_at": -1}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// UpdateDeliveryStatus conditional update, the filter loses the race to any
// higher-ranked writer so the highest status always wins
func (r *messageRepository) UpdateDeliveryStatus(ctx context.Context, messageID, recipientID string, newStatus domain.DeliveryState, allowedCurrent []domain.DeliveryState, ts int64) (bool, error) {
	filter := bson.M{
		"_id":                  messageID,
		statusKey(recipientID): bson.M{"$in": allowedCurrent},
	}
	update := bson.M{"$set": bson.M{
		statusKey(recipientID):                newStatus,
		entryKey(recipientID) + ".updated_at": ts,
	}}
	res, err := r.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount > 0, nil
}

// FindUnreadByRecipient bounded batch, oldest first so receipts follow message order
func (r *messageRepository) FindUnreadByRecipient(ctx context.Context, conversationID, userID string, limit int64) ([]domain.Message, error) {
	filter := bson.M{
		"conversation_id":  conversationID,
		entryKey(userID):   bson.M{"$exists": true},
		statusKey(userID):  bson.M{"$ne": domain.StatusRead},
	}
	opts := options.Find().SetSort(bson.M{"created_at": 1}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkRead batch transition to READ, the $ne filter keeps the call idempotent
func (r *messageRepository) MarkRead(ctx context.Context, messageIDs []string, userID string, ts int64) (int64, error) {
	if len(messageIDs) == 0 {
		return 0, nil
	}
	filter := bson.M{
		"_id":              bson.M{"$in": messageIDs},
		entryKey(userID):   bson.M{"$exists": true},
		statusKey(userID):  bson.M{"$nin": []domain.DeliveryState{domain.StatusRead, domain.StatusFailed}},
	}
	update := bson.M{"$set": bson.M{
		statusKey(userID):                domain.StatusRead,
		entryKey(userID) + ".updated_at": ts,
	}}
	res, err := r.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// FindPendingByRecipient messages still at SENT for userID, used by the connect sweep
func (r *messageRepository) FindPendingByRecipient(ctx context.Context, userID string, conversationIDs []string, limit int64) ([]domain.Message, error) {
	filter := bson.M{
		statusKey(userID): domain.StatusSent,
	}
	if len(conversationIDs) > 0 {
		filter["conversation_id"] = bson.M{"$in": conversationIDs}
	}
	opts := options.Find().SetSort(bson.M{"created_at": 1}).SetLimit(limit)
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var msgs []domain.Message
	if err := cur.All(ctx, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// CountUnread across all conversations, soft-deleted messages excluded
func (r *messageRepository) CountUnread(ctx context.Context, userID string) (int64, error) {
	filter := bson.M{
		entryKey(userID):   bson.M{"$exists": true},
		statusKey(userID):  bson.M{"$ne": domain.StatusRead},
		"deleted":          false,
	}
	return r.coll.CountDocuments(ctx, filter)
}

// SetDeleted flip the soft-delete flag, content is not physically removed
func (r *messageRepository) SetDeleted(ctx context.Context, messageID string, ts int64) error {
	update := bson.M{"$set": bson.M{"deleted": true, "deleted_at": ts}}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": messageID}, update)
	return err
}
