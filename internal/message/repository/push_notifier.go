package repository

import (
	"context"
	"encoding/json"

	"pairva_message_service/internal/message/domain"

	"github.com/segmentio/kafka-go"
)

// PushNotifier outbound push/email dispatch collaborator, fire and forget,
// a producer failure never reaches the sender
type PushNotifier interface {
	Notify(ctx context.Context, n domain.PushNotification) error
}

type kafkaPushNotifier struct {
	writer *kafka.Writer
}

// NewKafkaPushNotifier create a PushNotifier on a kafka topic
func NewKafkaPushNotifier(writer *kafka.Writer) PushNotifier {
	return &kafkaPushNotifier{writer: writer}
}

// Notify produce one push record, keyed by recipient so one user's
// notifications stay ordered on a single partition
func (p *kafkaPushNotifier) Notify(ctx context.Context, n domain.PushNotification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(n.RecipientID),
		Value: data,
	})
}
