package bootstrap

import (
	"log"
	"strings"

	"docqa-be/internal/config"
	"docqa-be/internal/pkg/logger"
	"docqa-be/pkg/notify"
)

// BuildNotifiers turns the configured backend names into notifiers. A
// backend that cannot be built is skipped with a warning; when none remain
// the log notifier is used.
func BuildNotifiers(cfg config.NotifierConfig, sysLogger logger.ILogger, mailer notify.Mailer, bus notify.EventPublisher) []notify.Notifier {
	var out []notify.Notifier
	for _, name := range cfg.Backends {
		switch strings.ToLower(name) {
		case "slack":
			n, err := notify.NewSlackNotifier(cfg.SlackBotToken, cfg.SlackChannelID)
			if err != nil {
				log.Printf("[WARN] Slack notifier disabled: %v", err)
				continue
			}
			out = append(out, n)
		case "email":
			n, err := notify.NewEmailNotifier(mailer, cfg.EmailTo...)
			if err != nil {
				log.Printf("[WARN] Email notifier disabled: %v", err)
				continue
			}
			out = append(out, n)
		case "nats":
			if bus == nil {
				log.Printf("[WARN] NATS notifier disabled: no connection")
				continue
			}
			out = append(out, notify.NewEventNotifier(bus))
		case "log":
			out = append(out, notify.NewLogNotifier(sysLogger))
		default:
			log.Printf("[WARN] Unknown notifier %q ignored", name)
		}
	}

	if len(out) == 0 {
		out = append(out, notify.NewLogNotifier(sysLogger))
	}
	return out
}
