package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"

	"docqa-be/internal/bootstrap"
	"docqa-be/internal/config"
	"docqa-be/internal/dto"
	"docqa-be/internal/pkg/logger"
	"docqa-be/internal/pkg/mailer"
	"docqa-be/internal/repository/memory"
	"docqa-be/internal/service"
	"docqa-be/pkg/index"
	"docqa-be/pkg/notify"
	"docqa-be/pkg/orchestrator"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// consoleProgress prints stage lines as the run advances.
type consoleProgress struct {
	mu sync.Mutex
}

func (p *consoleProgress) Publish(ctx context.Context, userID string, ev orchestrator.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	line := orchestrator.FormatProgress(ev)
	switch ev.Status {
	case orchestrator.ProgressComplete:
		color.Green("%s", line)
	case orchestrator.ProgressFailed:
		color.Red("%s", line)
	case orchestrator.ProgressWorking:
		color.Yellow("%s", line)
	default:
		fmt.Println(line)
	}
}

func main() {
	var file, query, user string

	cmd := &cobra.Command{
		Use:          "ask",
		Short:        "Answer a question about a local document",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), file, query, user)
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "document to ask about")
	cmd.Flags().StringVarP(&query, "query", "q", "", "question")
	cmd.Flags().StringVarP(&user, "user", "u", "", "user id shown in published messages")
	cmd.MarkFlagRequired("file")
	cmd.MarkFlagRequired("query")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.ExecuteContext(ctx); err != nil {
		color.Red("✗ %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, file, query, user string) error {
	cfg := config.Load()
	sysLogger := logger.NewIsolatedLogger(cfg.App.LogFilePath)
	defer sysLogger.Sync()

	embedders, err := bootstrap.NewEmbedders(ctx, cfg)
	if err != nil {
		return err
	}
	provider, err := bootstrap.NewLLM(ctx, cfg)
	if err != nil {
		return err
	}
	cache, err := index.NewCache(cfg.Storage.CacheRoot, embedders)
	if err != nil {
		return err
	}
	builder := index.NewBuilder(embedders, cfg.Orchestrator.ChunkSize, cfg.Orchestrator.ChunkOverlap)

	emailService := mailer.NewEmailService(cfg.SMTP, sysLogger)
	notifier := notify.NewMulti(sysLogger, bootstrap.BuildNotifiers(cfg.Notifier, sysLogger, emailService, nil)...)

	qa := service.NewQAService(
		service.NewIndexService(cache, builder, sysLogger),
		provider,
		notifier,
		memory.NewRequestRecordRepository(cfg.Storage.RecordTTL),
		&consoleProgress{},
		cfg.Orchestrator,
		cfg.Notifier.DefaultUserID,
		sysLogger,
	)

	color.Cyan("Question: %s\n", query)
	res, err := qa.Ask(ctx, &dto.DocQARequest{FileLocation: file, UserID: user, UserQuery: query})
	if err != nil {
		return err
	}

	color.Cyan("\nAnswer (%s):", res.RequestID)
	fmt.Println(res.Message)
	return nil
}
