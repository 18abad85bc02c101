package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docqa-be/internal/pkg/logger"
	"docqa-be/pkg/agent"
	"docqa-be/pkg/llm"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

const module = "Orchestrator"

var tracer = otel.Tracer("docqa-be/orchestrator")

type Config struct {
	Timeout       time.Duration
	MaxParallel   int // 0 means every sub-question at once
	AgentMaxSteps int
}

func DefaultConfig() Config {
	return Config{Timeout: 120 * time.Second, AgentMaxSteps: 6}
}

// Runner answers one task, calling tools as it sees fit.
type Runner interface {
	Run(ctx context.Context, task string) (string, error)
}

// AgentFactory builds a fresh agent bound to the given tools.
type AgentFactory func(tools []agent.Tool) Runner

type Request struct {
	RequestID string
	UserID    string
	Query     string
}

type Result struct {
	RequestID    string
	Text         string
	SubQuestions []string
	Instructions []string
	Answers      []SubAnswer
	Synthesis    Synthesis
	Executed     bool
	// ExecuteErr is set when the instruction agent failed; Text then holds
	// the combined answer.
	ExecuteErr error
	Elapsed    time.Duration
}

type Orchestrator struct {
	provider llm.LLMProvider
	cfg      Config
	log      logger.ILogger
	newAgent AgentFactory
	progress ProgressFunc
}

type Option func(*Orchestrator)

func WithLogger(l logger.ILogger) Option {
	return func(o *Orchestrator) { o.log = l }
}

func WithAgentFactory(f AgentFactory) Option {
	return func(o *Orchestrator) { o.newAgent = f }
}

func WithProgress(f ProgressFunc) Option {
	return func(o *Orchestrator) { o.progress = f }
}

func New(provider llm.LLMProvider, cfg Config, opts ...Option) *Orchestrator {
	def := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.AgentMaxSteps <= 0 {
		cfg.AgentMaxSteps = def.AgentMaxSteps
	}

	o := &Orchestrator{
		provider: provider,
		cfg:      cfg,
		log:      logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.newAgent == nil {
		o.newAgent = func(tools []agent.Tool) Runner {
			return agent.New(o.provider, tools,
				agent.WithMaxSteps(o.cfg.AgentMaxSteps),
				agent.WithLogger(o.log),
			)
		}
	}
	return o
}

type outcome struct {
	res *Result
	err error
}

// Run answers req.Query with the given tools. The whole run is bounded by
// the configured timeout; on expiry it fails with ErrTimeout and whatever is
// still in flight is abandoned.
func (o *Orchestrator) Run(ctx context.Context, req Request, tools []agent.Tool) (*Result, error) {
	if req.RequestID == "" {
		req.RequestID = uuid.NewString()
	}

	ctx, span := tracer.Start(ctx, "orchestrator.Run", trace.WithAttributes(
		attribute.String("request.id", req.RequestID),
		attribute.String("user.id", req.UserID),
	))
	defer span.End()

	runCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	state := NewRunState(req)
	o.log.Info(module, "Run started", map[string]interface{}{
		"request_id": req.RequestID,
		"user_id":    req.UserID,
		"query":      req.Query,
	})

	done := make(chan outcome, 1)
	go func() {
		res, err := o.run(runCtx, state, tools)
		done <- outcome{res: res, err: err}
	}()

	var out outcome
	select {
	case out = <-done:
	case <-runCtx.Done():
		out = outcome{err: runCtx.Err()}
	}

	if out.err != nil && errors.Is(out.err, context.DeadlineExceeded) && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		out = outcome{err: fmt.Errorf("%w after %s", ErrTimeout, o.cfg.Timeout)}
	}
	if out.err != nil {
		span.RecordError(out.err)
		span.SetStatus(codes.Error, out.err.Error())
		o.log.Error(module, "Run failed", map[string]interface{}{
			"request_id": req.RequestID,
			"error":      out.err.Error(),
		})
		return nil, out.err
	}

	out.res.Elapsed = time.Since(state.StartedAt)
	o.log.Info(module, "Run completed", map[string]interface{}{
		"request_id": req.RequestID,
		"answers":    len(out.res.Answers),
		"executed":   out.res.Executed,
		"elapsed_ms": out.res.Elapsed.Milliseconds(),
	})
	return out.res, nil
}

func (o *Orchestrator) run(ctx context.Context, state *RunState, tools []agent.Tool) (*Result, error) {
	d, err := o.decompose(ctx, state, tools)
	if err != nil {
		return nil, err
	}
	state.Expect(d.SubQuestions, d.Instructions)

	answers, err := o.answerAll(ctx, state, tools)
	if err != nil {
		return nil, err
	}

	syn, err := o.synthesize(ctx, state, answers)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	state.Synthesis = &syn
	state.Result = syn.Text()

	res := &Result{
		RequestID:    state.RequestID,
		Text:         state.Result,
		SubQuestions: state.SubQuestions,
		Instructions: state.Instructions,
		Answers:      answers,
		Synthesis:    syn,
	}
	if len(state.Instructions) == 0 {
		state.FinishedAt = time.Now()
		return res, nil
	}

	text, err := o.execute(ctx, state, tools)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	res.Executed = true
	if err != nil {
		state.ExecuteErr = err
		res.ExecuteErr = err
	} else {
		state.Result = text
		res.Text = text
	}
	state.FinishedAt = time.Now()
	return res, nil
}

func (o *Orchestrator) decompose(ctx context.Context, state *RunState, tools []agent.Tool) (Decomposition, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.decompose")
	defer span.End()
	o.emit(state, StageDecompose, "", ProgressWorking, "")

	raw, err := o.provider.Generate(ctx, buildDecomposePrompt(state.Query, tools),
		llm.WithJSONMode(), llm.WithTemperature(0))
	if err != nil {
		err = fmt.Errorf("decompose query: %w", err)
		o.fail(span, state, StageDecompose, "", err)
		return Decomposition{}, err
	}

	d, err := parseDecomposition(raw, state.Query)
	if err != nil {
		o.log.Warn(module, "Decomposition rejected", map[string]interface{}{
			"request_id": state.RequestID,
			"raw":        raw,
		})
		o.fail(span, state, StageDecompose, "", err)
		return Decomposition{}, err
	}

	span.SetAttributes(
		attribute.Int("sub_questions", len(d.SubQuestions)),
		attribute.Int("instructions", len(d.Instructions)),
	)
	o.log.Info(module, "Query decomposed", map[string]interface{}{
		"request_id":    state.RequestID,
		"sub_questions": d.SubQuestions,
		"instructions":  d.Instructions,
	})
	o.emit(state, StageDecompose, "", ProgressComplete, fmt.Sprintf("%d sub-questions", len(d.SubQuestions)))
	return d, nil
}

// answerAll fans the sub-questions out and runs the supervisor loop that
// feeds every arrival to the joiner until it reports the set complete.
func (o *Orchestrator) answerAll(ctx context.Context, state *RunState, tools []agent.Tool) ([]SubAnswer, error) {
	questions := state.SubQuestions
	// Buffered to the full count so an abandoned run never blocks a sender.
	arrivals := make(chan SubAnswer, len(questions))

	g := new(errgroup.Group)
	if o.cfg.MaxParallel > 0 {
		g.SetLimit(o.cfg.MaxParallel)
	}
	for _, q := range questions {
		o.emit(state, StageAnswer, q, ProgressPending, "")
	}
	go func() {
		for i, q := range questions {
			if ctx.Err() != nil {
				break
			}
			g.Go(func() error {
				arrivals <- o.answer(ctx, state, i, q, tools)
				return nil
			})
		}
		_ = g.Wait()
		close(arrivals)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case a, ok := <-arrivals:
			if !ok {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				return nil, fmt.Errorf("answer stage ended with %d of %d answers", len(state.Answers()), state.Expected())
			}
			if answers, ready := state.Join(&a); ready {
				return answers, nil
			}
		}
	}
}

func (o *Orchestrator) answer(ctx context.Context, state *RunState, index int, question string, tools []agent.Tool) SubAnswer {
	ctx, span := tracer.Start(ctx, "orchestrator.answer", trace.WithAttributes(
		attribute.Int("index", index),
		attribute.String("question", question),
	))
	defer span.End()
	o.emit(state, StageAnswer, question, ProgressWorking, "")

	text, err := o.newAgent(tools).Run(ctx, question)
	if err != nil {
		span.RecordError(err)
		o.log.Warn(module, "Sub-question agent failed", map[string]interface{}{
			"request_id": state.RequestID,
			"question":   question,
			"error":      err.Error(),
		})
		o.emit(state, StageAnswer, question, ProgressFailed, err.Error())
		return SubAnswer{Index: index, Question: question, Answer: "Error: " + err.Error(), Failed: true}
	}

	o.emit(state, StageAnswer, question, ProgressComplete, text)
	return SubAnswer{Index: index, Question: question, Answer: text}
}

func (o *Orchestrator) synthesize(ctx context.Context, state *RunState, answers []SubAnswer) (Synthesis, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.synthesize")
	defer span.End()
	o.emit(state, StageSynthesize, "", ProgressWorking, "")

	raw, err := o.provider.Generate(ctx, buildSynthesisPrompt(state.Query, answers),
		llm.WithJSONMode(), llm.WithTemperature(0.1))
	if err != nil {
		err = fmt.Errorf("synthesize answers: %w", err)
		o.fail(span, state, StageSynthesize, "", err)
		return Synthesis{}, err
	}

	syn := parseSynthesis(raw)
	span.SetAttributes(attribute.String("kind", string(syn.Kind)))
	o.emit(state, StageSynthesize, "", ProgressComplete, syn.Text())
	return syn, nil
}

func (o *Orchestrator) execute(ctx context.Context, state *RunState, tools []agent.Tool) (string, error) {
	ctx, span := tracer.Start(ctx, "orchestrator.execute")
	defer span.End()
	o.emit(state, StageExecute, "", ProgressWorking, "")

	text, err := o.newAgent(tools).Run(ctx, buildExecutePrompt(state.Instructions, state.Result))
	if err != nil {
		o.log.Warn(module, "Instruction agent failed, keeping the combined answer", map[string]interface{}{
			"request_id":   state.RequestID,
			"instructions": state.Instructions,
			"error":        err.Error(),
		})
		o.fail(span, state, StageExecute, "", err)
		return "", err
	}
	o.emit(state, StageExecute, "", ProgressComplete, text)
	return text, nil
}

func (o *Orchestrator) fail(span trace.Span, state *RunState, stage Stage, section string, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	o.emit(state, stage, section, ProgressFailed, err.Error())
}

func (o *Orchestrator) emit(state *RunState, stage Stage, section string, status ProgressStatus, msg string) {
	if o.progress == nil {
		return
	}
	o.progress(ProgressEvent{
		RequestID: state.RequestID,
		Stage:     stage,
		Section:   section,
		Status:    status,
		Message:   msg,
	})
}
