package service

import (
	"context"

	"docqa-be/internal/dto"
	"docqa-be/internal/pkg/logger"
	"docqa-be/pkg/events"
	"docqa-be/pkg/notify"
	"docqa-be/pkg/orchestrator"
)

const progressMessageType = "progress"

// ProgressDelivery pushes a message to the live connections of one user.
type ProgressDelivery interface {
	Send(userID, msgType string, data interface{})
}

type IProgressService interface {
	Publish(ctx context.Context, userID string, ev orchestrator.ProgressEvent)
}

type progressService struct {
	delivery ProgressDelivery
	bus      notify.EventPublisher
	logger   logger.ILogger
}

// NewProgressService fans progress out to websocket clients and the event
// bus. Either may be nil.
func NewProgressService(delivery ProgressDelivery, bus notify.EventPublisher, log logger.ILogger) IProgressService {
	return &progressService{delivery: delivery, bus: bus, logger: log}
}

func (s *progressService) Publish(ctx context.Context, userID string, ev orchestrator.ProgressEvent) {
	msg := dto.ProgressMessage{
		RequestID: ev.RequestID,
		Stage:     ev.Stage.String(),
		Section:   ev.Section,
		Status:    string(ev.Status),
		Message:   ev.Message,
	}

	if s.delivery != nil {
		s.delivery.Send(userID, progressMessageType, msg)
	}

	if s.bus != nil {
		err := s.bus.Publish(ctx, events.NewRunProgress(events.RunProgress{
			RequestID: msg.RequestID,
			UserID:    userID,
			Stage:     msg.Stage,
			Section:   msg.Section,
			Status:    msg.Status,
			Message:   msg.Message,
		}))
		if err != nil {
			s.logger.Warn("ProgressService", "Failed to publish progress event", map[string]interface{}{
				"request_id": msg.RequestID,
				"error":      err.Error(),
			})
		}
	}
}
