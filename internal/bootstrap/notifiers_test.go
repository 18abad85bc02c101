package bootstrap

import (
	"context"
	"testing"

	"docqa-be/internal/config"
	"docqa-be/internal/pkg/logger"
	"docqa-be/pkg/events"
	"docqa-be/pkg/notify"

	"github.com/stretchr/testify/assert"
)

type nopMailer struct{}

func (nopMailer) Send(to, subject, htmlBody string) error { return nil }

type nopBus struct{}

func (nopBus) Publish(ctx context.Context, e events.Event) error { return nil }

func names(ns []notify.Notifier) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Name())
	}
	return out
}

func TestBuildNotifiers(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.NotifierConfig
		bus  notify.EventPublisher
		want []string
	}{
		{
			name: "all configured",
			cfg: config.NotifierConfig{
				Backends:       []string{"slack", "Email", "nats", "log"},
				SlackBotToken:  "xoxb-1",
				SlackChannelID: "C1",
				EmailTo:        []string{"ops@example.com"},
			},
			bus:  nopBus{},
			want: []string{"slack", "email", "nats", "log"},
		},
		{
			name: "unusable backends are skipped",
			cfg:  config.NotifierConfig{Backends: []string{"slack", "email", "nats", "carrier-pigeon", "log"}},
			want: []string{"log"},
		},
		{
			name: "falls back to log",
			cfg:  config.NotifierConfig{Backends: []string{"slack"}},
			want: []string{"log"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildNotifiers(tt.cfg, logger.NewNopLogger(), nopMailer{}, tt.bus)
			assert.Equal(t, tt.want, names(got))
		})
	}
}
