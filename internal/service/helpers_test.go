package service

import (
	"context"
	"errors"
	"hash/fnv"
	"math"
	"strings"
	"sync"

	"docqa-be/pkg/index"
	"docqa-be/pkg/llm"
	"docqa-be/pkg/notify"
	"docqa-be/pkg/orchestrator"
)

// wordHashEmbed is an offline embedder: hashed word counts, unit length.
func wordHashEmbed(ctx context.Context, text string) ([]float32, error) {
	vec := make([]float32, 64)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		w = strings.Trim(w, ".,?!:;")
		if w == "" {
			continue
		}
		h := fnv.New32a()
		h.Write([]byte(w))
		vec[h.Sum32()%64]++
	}
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		vec[0] = 1
		return vec, nil
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

var testEmbedders = index.Embedders{Document: wordHashEmbed}

const cityReport = `San Francisco population census counted 808437 residents in the city.

The annual budget of San Francisco was approved at 14.6 billion dollars.`

type fakeIndexService struct {
	mu      sync.Mutex
	idx     *index.Index
	err     error
	built   []string
	cleared int
}

func (f *fakeIndexService) GetOrBuild(ctx context.Context, path string) (*index.Index, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.built = append(f.built, path)
	return f.idx, f.err
}

func (f *fakeIndexService) ClearAll() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleared++
	return f.err
}

func (f *fakeIndexService) builtPaths() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.built...)
}

// scriptedOracle routes prompts by their content.
type scriptedOracle struct {
	mu            sync.Mutex
	decomposition string
	passageAnswer string
	synthesis     string
}

func (s *scriptedOracle) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case strings.Contains(prompt, "Here is the user question:"):
		return s.decomposition, nil
	case strings.Contains(prompt, "Context information is below."):
		return s.passageAnswer, nil
	default:
		return s.synthesis, nil
	}
}

func (s *scriptedOracle) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

// ChatWithTools always looks the question up in the document.
func (s *scriptedOracle) ChatWithTools(ctx context.Context, history []llm.Message, specs []llm.ToolSpec, options ...llm.Option) (*llm.Message, error) {
	last := history[len(history)-1]
	if last.Role == llm.RoleTool {
		return &llm.Message{Role: llm.RoleAssistant, Content: last.Content}, nil
	}
	return &llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{
		ID:        "1",
		Name:      "document_vector_tool",
		Arguments: map[string]interface{}{"input": last.Content},
	}}}, nil
}

type nopNotifier struct{}

func (nopNotifier) Name() string { return "nop" }

func (nopNotifier) Publish(ctx context.Context, m notify.Message) error { return nil }

type recordedProgress struct {
	userID string
	event  orchestrator.ProgressEvent
}

type progressRecorder struct {
	mu  sync.Mutex
	got []recordedProgress
}

func (p *progressRecorder) Publish(ctx context.Context, userID string, ev orchestrator.ProgressEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.got = append(p.got, recordedProgress{userID: userID, event: ev})
}

func (p *progressRecorder) all() []recordedProgress {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]recordedProgress(nil), p.got...)
}
