package notify

import (
	"context"
	"errors"
	"fmt"

	"docqa-be/internal/pkg/logger"
	"docqa-be/pkg/events"
)

// Message is one publication on behalf of a request.
type Message struct {
	RequestID string
	UserID    string
	Text      string
}

// Format renders the message the way every channel shows it.
func Format(m Message) string {
	return fmt.Sprintf("The following is the response for the req_id: %s by user <@%s>.\n%s", m.RequestID, m.UserID, m.Text)
}

// Notifier publishes text to a fixed external channel.
type Notifier interface {
	Name() string
	Publish(ctx context.Context, m Message) error
}

// Multi publishes to every notifier and joins their errors. One failing
// channel does not stop the others.
type Multi struct {
	notifiers []Notifier
	logger    logger.ILogger
}

func NewMulti(log logger.ILogger, notifiers ...Notifier) *Multi {
	return &Multi{notifiers: notifiers, logger: log}
}

func (m *Multi) Name() string { return "multi" }

func (m *Multi) Publish(ctx context.Context, msg Message) error {
	var errs []error
	for _, n := range m.notifiers {
		if err := n.Publish(ctx, msg); err != nil {
			m.logger.Error("Notifier", "Publish failed", map[string]interface{}{
				"channel":    n.Name(),
				"request_id": msg.RequestID,
				"error":      err.Error(),
			})
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		m.logger.Info("Notifier", "Message published", map[string]interface{}{
			"channel":    n.Name(),
			"request_id": msg.RequestID,
		})
	}
	return errors.Join(errs...)
}

// LogNotifier writes the message to the application log. It is the fallback
// channel when nothing else is configured.
type LogNotifier struct {
	logger logger.ILogger
}

func NewLogNotifier(log logger.ILogger) *LogNotifier {
	return &LogNotifier{logger: log}
}

func (l *LogNotifier) Name() string { return "log" }

func (l *LogNotifier) Publish(ctx context.Context, m Message) error {
	l.logger.Info("Notifier", Format(m), map[string]interface{}{
		"request_id": m.RequestID,
		"user_id":    m.UserID,
	})
	return nil
}

// EventPublisher is satisfied by the NATS publisher.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// EventNotifier emits the message as a DOCQA_PUBLISHED event on the bus.
type EventNotifier struct {
	publisher EventPublisher
}

func NewEventNotifier(p EventPublisher) *EventNotifier {
	return &EventNotifier{publisher: p}
}

func (e *EventNotifier) Name() string { return "nats" }

func (e *EventNotifier) Publish(ctx context.Context, m Message) error {
	return e.publisher.Publish(ctx, events.NewAnswerPublished(m.RequestID, m.UserID, Format(m)))
}
