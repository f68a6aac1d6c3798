package repository

import (
	"context"
	"encoding/json"

	"ephemeral_message_service/internal/message/domain"

	"github.com/segmentio/kafka-go"
)

// EventJournal definition durable event log for offline consumers
type EventJournal interface {
	Append(ctx context.Context, event domain.ChatEvent) error
}

type kafkaEventJournal struct {
	writer *kafka.Writer
}

// NewKafkaEventJournal create an EventJournal backed by a kafka topic
func NewKafkaEventJournal(writer *kafka.Writer) EventJournal {
	return &kafkaEventJournal{writer: writer}
}

// Append 以 chat_id 為 key，同一聊天室的事件落在同一 partition
func (j *kafkaEventJournal) Append(ctx context.Context, event domain.ChatEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return j.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ChatID),
		Value: data,
	})
}
