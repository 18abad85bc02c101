package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docqa-be/internal/config"
	"docqa-be/pkg/events"
	pktNats "docqa-be/pkg/nats"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func main() {
	var subject string

	cmd := &cobra.Command{
		Use:          "watch",
		Short:        "Print docqa events from NATS as they arrive",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return watch(cmd.Context(), subject)
		},
	}
	cmd.Flags().StringVarP(&subject, "subject", "s", pktNats.SubjectPrefix+">", "subject filter")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func watch(ctx context.Context, subject string) error {
	cfg := config.Load()

	// The subscriber needs the stream, which the publisher creates.
	pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	pub.Close()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		return err
	}
	defer sub.Close()

	err = sub.Subscribe(ctx, subject, "docqa-watch-"+uuid.NewString()[:8], func(ctx context.Context, e events.Event) error {
		printEvent(e)
		return nil
	})
	if err != nil {
		return err
	}

	color.Cyan("Watching %s on %s (Ctrl+C to stop)", subject, cfg.App.NatsURL)
	<-ctx.Done()
	return nil
}

func printEvent(e events.Event) {
	ts := e.Timestamp().Format("15:04:05")
	switch e.EventType() {
	case events.TypeRunProgress:
		line := fmt.Sprintf("%s [%s] %s %s %s", ts,
			events.Field(e, "request_id"), events.Field(e, "stage"), events.Field(e, "status"), events.Field(e, "section"))
		if events.Field(e, "status") == "failed" {
			color.Red("%s", line)
		} else {
			color.Yellow("%s", line)
		}
	case events.TypeAnswerPublished:
		color.Green("%s %s", ts, events.Field(e, "text"))
	default:
		raw, _ := json.Marshal(e.Payload())
		fmt.Printf("%s %s %s\n", ts, e.EventType(), raw)
	}
}
