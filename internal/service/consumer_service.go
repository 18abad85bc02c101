package service

import (
	"context"
	"encoding/json"

	"docqa-be/internal/dto"
	"docqa-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
)

type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService pre-builds the index of every uploaded document so the
// first question does not pay for it.
type consumerService struct {
	subscriber message.Subscriber
	topicName  string
	indexes    IIndexService
	logger     logger.ILogger
}

func NewConsumerService(
	subscriber message.Subscriber,
	topicName string,
	indexes IIndexService,
	log logger.ILogger,
) IConsumerService {
	return &consumerService{
		subscriber: subscriber,
		topicName:  topicName,
		indexes:    indexes,
		logger:     log,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.subscriber.Subscribe(ctx, cs.topicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(ctx, msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.DocumentUploadedMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil || payload.FilePath == "" {
		cs.logger.Error("ConsumerService", "Invalid upload message", map[string]interface{}{
			"message_id": msg.UUID,
			"error":      errString(err),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	idx, err := cs.indexes.GetOrBuild(ctx, payload.FilePath)
	if err != nil {
		// A failed warm-up is retried by the first question, not here.
		cs.logger.Warn("ConsumerService", "Index warm-up failed", map[string]interface{}{
			"file_path": payload.FilePath,
			"error":     err.Error(),
		})
		msg.Ack()
		return
	}

	chunks := 0
	if idx != nil {
		chunks = idx.Meta.Chunks
	}
	cs.logger.Info("ConsumerService", "Index warmed", map[string]interface{}{
		"file_path": payload.FilePath,
		"chunks":    chunks,
	})
	msg.Ack()
}

func errString(err error) string {
	if err == nil {
		return "missing file_path"
	}
	return err.Error()
}
