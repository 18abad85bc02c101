package service

import (
	"context"
	"time"

	"docqa-be/internal/config"
	"docqa-be/internal/dto"
	"docqa-be/internal/entity"
	"docqa-be/internal/pkg/logger"
	"docqa-be/internal/repository/contract"
	"docqa-be/pkg/agent"
	"docqa-be/pkg/index"
	"docqa-be/pkg/llm"
	"docqa-be/pkg/notify"
	"docqa-be/pkg/orchestrator"
	"docqa-be/pkg/relevance"
	"docqa-be/pkg/tools"

	"github.com/google/uuid"
)

type IQAService interface {
	Ask(ctx context.Context, req *dto.DocQARequest) (*dto.DocQAResponse, error)
	GetRecord(ctx context.Context, requestID string) (*entity.RequestRecord, error)
}

type qaService struct {
	indexes       IIndexService
	provider      llm.LLMProvider
	notifier      notify.Notifier
	records       contract.RequestRecordRepository
	progress      IProgressService
	cfg           config.OrchestratorConfig
	defaultUserID string
	logger        logger.ILogger
}

func NewQAService(
	indexes IIndexService,
	provider llm.LLMProvider,
	notifier notify.Notifier,
	records contract.RequestRecordRepository,
	progress IProgressService,
	cfg config.OrchestratorConfig,
	defaultUserID string,
	log logger.ILogger,
) IQAService {
	return &qaService{
		indexes:       indexes,
		provider:      provider,
		notifier:      notifier,
		records:       records,
		progress:      progress,
		cfg:           cfg,
		defaultUserID: defaultUserID,
		logger:        log,
	}
}

func (s *qaService) Ask(ctx context.Context, req *dto.DocQARequest) (*dto.DocQAResponse, error) {
	userID := req.UserID
	if userID == "" {
		userID = s.defaultUserID
	}

	now := time.Now().UTC()
	record := &entity.RequestRecord{
		ID:           uuid.NewString(),
		UserID:       userID,
		FileLocation: req.FileLocation,
		Query:        req.UserQuery,
		Status:       entity.RequestStatusRunning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	s.save(ctx, record)

	res, err := s.run(ctx, record)
	record.UpdatedAt = time.Now().UTC()
	if err != nil {
		record.Status = entity.RequestStatusFailed
		record.Error = err.Error()
		s.save(ctx, record)
		return nil, err
	}

	record.Status = entity.RequestStatusCompleted
	record.SubQuestions = res.SubQuestions
	record.Instructions = res.Instructions
	record.SynthesisKind = string(res.Synthesis.Kind)
	record.Result = res.Text
	for _, a := range res.Answers {
		record.Answers = append(record.Answers, entity.RecordAnswer{Question: a.Question, Answer: a.Answer, Failed: a.Failed})
	}
	if res.ExecuteErr != nil {
		record.Error = res.ExecuteErr.Error()
	}
	s.save(ctx, record)

	return &dto.DocQAResponse{
		Message:   res.Text,
		RequestID: record.ID,
		UserID:    userID,
	}, nil
}

func (s *qaService) run(ctx context.Context, record *entity.RequestRecord) (*orchestrator.Result, error) {
	idx, err := s.indexes.GetOrBuild(ctx, record.FileLocation)
	if err != nil {
		return nil, err
	}

	searcher := relevance.NewGatedSearcher(
		index.NewQueryEngine(idx, s.provider, s.cfg.SimilarityTopK),
		relevance.NewGate(s.cfg.RelevanceThreshold),
	)
	toolset := []agent.Tool{
		tools.NewDocumentTool(searcher, true),
		tools.NewPublishTool(s.notifier, record.ID, record.UserID),
	}

	opts := []orchestrator.Option{orchestrator.WithLogger(s.logger)}
	if s.progress != nil {
		userID := record.UserID
		opts = append(opts, orchestrator.WithProgress(func(ev orchestrator.ProgressEvent) {
			s.progress.Publish(context.Background(), userID, ev)
		}))
	}

	orch := orchestrator.New(s.provider, orchestrator.Config{
		Timeout:       s.cfg.RunTimeout,
		MaxParallel:   s.cfg.MaxParallelAgents,
		AgentMaxSteps: s.cfg.AgentMaxSteps,
	}, opts...)

	return orch.Run(ctx, orchestrator.Request{
		RequestID: record.ID,
		UserID:    record.UserID,
		Query:     record.Query,
	}, toolset)
}

func (s *qaService) GetRecord(ctx context.Context, requestID string) (*entity.RequestRecord, error) {
	return s.records.FindByID(ctx, requestID)
}

// save never fails the request; records are informational.
func (s *qaService) save(ctx context.Context, record *entity.RequestRecord) {
	if err := s.records.Save(ctx, record); err != nil {
		s.logger.Warn("QAService", "Failed to save request record", map[string]interface{}{
			"request_id": record.ID,
			"error":      err.Error(),
		})
	}
}
