package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

type SlackNotifier struct {
	client    *slack.Client
	channelID string
}

func NewSlackNotifier(token, channelID string, opts ...slack.Option) (*SlackNotifier, error) {
	if token == "" || channelID == "" {
		return nil, fmt.Errorf("slack notifier needs a bot token and a channel id")
	}
	return &SlackNotifier{
		client:    slack.New(token, opts...),
		channelID: channelID,
	}, nil
}

func (s *SlackNotifier) Name() string { return "slack" }

func (s *SlackNotifier) Publish(ctx context.Context, m Message) error {
	_, _, err := s.client.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(Format(m), false))
	if err != nil {
		return fmt.Errorf("post slack message: %w", err)
	}
	return nil
}
