package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"docqa-be/internal/config"
	"docqa-be/internal/dto"
	"docqa-be/internal/entity"
	"docqa-be/internal/pkg/logger"
	"docqa-be/internal/repository/memory"
	"docqa-be/pkg/index"
	"docqa-be/pkg/orchestrator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testOrchestratorConfig = config.OrchestratorConfig{
	RunTimeout:         5 * time.Second,
	AgentMaxSteps:      4,
	RelevanceThreshold: 0.01,
	SimilarityTopK:     2,
}

func TestQAServiceAsk(t *testing.T) {
	idx, err := index.NewBuilder(testEmbedders, 80, 0).BuildFromText(context.Background(), "report.txt", cityReport)
	require.NoError(t, err)

	indexes := &fakeIndexService{idx: idx}
	oracle := &scriptedOracle{
		decomposition: `{"sub_questions":["What is the population of San Francisco?"],"special_instructions":[]}`,
		passageAnswer: "808,437 residents",
		synthesis:     `{"kind":"single","question":"What is the population of San Francisco?","answer":"808,437 residents"}`,
	}
	records := memory.NewRequestRecordRepository(time.Hour)
	progress := &progressRecorder{}

	svc := NewQAService(indexes, oracle, nopNotifier{}, records, progress, testOrchestratorConfig, "U0807FT9H6V", logger.NewNopLogger())

	res, err := svc.Ask(context.Background(), &dto.DocQARequest{
		FileLocation: "tmp/report.txt",
		UserQuery:    "What is the population of San Francisco?",
	})
	require.NoError(t, err)

	assert.Equal(t, "Question: What is the population of San Francisco?\nAnswer: 808,437 residents", res.Message)
	assert.Equal(t, "U0807FT9H6V", res.UserID)
	assert.NotEmpty(t, res.RequestID)
	assert.Equal(t, []string{"tmp/report.txt"}, indexes.builtPaths())

	rec, err := svc.GetRecord(context.Background(), res.RequestID)
	require.NoError(t, err)
	assert.Equal(t, entity.RequestStatusCompleted, rec.Status)
	assert.Equal(t, []string{"What is the population of San Francisco?"}, rec.SubQuestions)
	require.Len(t, rec.Answers, 1)
	assert.Equal(t, "808,437 residents", rec.Answers[0].Answer)
	assert.Equal(t, "single", rec.SynthesisKind)
	assert.Equal(t, res.Message, rec.Result)

	events := progress.all()
	require.NotEmpty(t, events)
	for _, e := range events {
		assert.Equal(t, "U0807FT9H6V", e.userID)
		assert.Equal(t, res.RequestID, e.event.RequestID)
	}
}

func TestQAServiceAskGatesIrrelevantAnswers(t *testing.T) {
	idx, err := index.NewBuilder(testEmbedders, 80, 0).BuildFromText(context.Background(), "report.txt", cityReport)
	require.NoError(t, err)

	oracle := &scriptedOracle{
		decomposition: `{"sub_questions":["zebra migration patterns"],"special_instructions":[]}`,
		passageAnswer: "made up",
		synthesis:     "Data Not Available",
	}
	cfg := testOrchestratorConfig
	cfg.RelevanceThreshold = 0.99

	svc := NewQAService(&fakeIndexService{idx: idx}, oracle, nopNotifier{}, memory.NewRequestRecordRepository(time.Hour), nil, cfg, "U1", logger.NewNopLogger())
	res, err := svc.Ask(context.Background(), &dto.DocQARequest{FileLocation: "report.txt", UserID: "U2", UserQuery: "zebras?"})
	require.NoError(t, err)
	assert.Equal(t, "U2", res.UserID)

	rec, err := svc.GetRecord(context.Background(), res.RequestID)
	require.NoError(t, err)
	require.Len(t, rec.Answers, 1)
	assert.Equal(t, "Data Not Available", rec.Answers[0].Answer)
}

func TestQAServiceAskFailures(t *testing.T) {
	t.Run("index error", func(t *testing.T) {
		records := memory.NewRequestRecordRepository(time.Hour)
		storageErr := &index.StorageError{Op: "load", Key: "report", Err: errors.New("permission denied")}
		svc := NewQAService(&fakeIndexService{err: storageErr}, &scriptedOracle{}, nopNotifier{}, records, nil, testOrchestratorConfig, "U1", logger.NewNopLogger())

		_, err := svc.Ask(context.Background(), &dto.DocQARequest{FileLocation: "report.pdf", UserQuery: "q"})
		assert.ErrorIs(t, err, index.ErrStorage)
	})

	t.Run("malformed decomposition", func(t *testing.T) {
		idx, err := index.NewBuilder(testEmbedders, 80, 0).BuildFromText(context.Background(), "report.txt", cityReport)
		require.NoError(t, err)

		oracle := &scriptedOracle{decomposition: "population, budget"}
		svc := NewQAService(&fakeIndexService{idx: idx}, oracle, nopNotifier{}, memory.NewRequestRecordRepository(time.Hour), nil, testOrchestratorConfig, "U1", logger.NewNopLogger())

		_, err = svc.Ask(context.Background(), &dto.DocQARequest{FileLocation: "report.txt", UserQuery: "q"})
		assert.ErrorIs(t, err, orchestrator.ErrParse)
	})
}
