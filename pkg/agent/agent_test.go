package agent

import (
	"context"
	"errors"
	"strings"
	"testing"

	"docqa-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedProvider replays replies in order and records every history it saw.
type scriptedProvider struct {
	replies   []*llm.Message
	err       error
	histories [][]llm.Message
}

func (s *scriptedProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return "", errors.New("not used")
}

func (s *scriptedProvider) ChatWithTools(ctx context.Context, history []llm.Message, tools []llm.ToolSpec, options ...llm.Option) (*llm.Message, error) {
	s.histories = append(s.histories, append([]llm.Message(nil), history...))
	if s.err != nil {
		return nil, s.err
	}
	if len(s.replies) == 0 {
		return &llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "loop", Name: "lookup"}}}, nil
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, nil
}

type lookupTool struct {
	name   string
	out    string
	err    error
	direct bool
	calls  []map[string]interface{}
}

func (l *lookupTool) Spec() llm.ToolSpec {
	name := l.name
	if name == "" {
		name = "lookup"
	}
	return llm.ToolSpec{Name: name, Params: []llm.ToolParam{{Name: "input", Type: "string", Required: true}}}
}

func (l *lookupTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	l.calls = append(l.calls, args)
	return l.out, l.err
}

func (l *lookupTool) ReturnDirect() bool { return l.direct }

func toolCall(name string, args map[string]interface{}) *llm.Message {
	return &llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{ID: "call-1", Name: name, Arguments: args}}}
}

func answer(text string) *llm.Message {
	return &llm.Message{Role: llm.RoleAssistant, Content: text}
}

func TestRunAnswersWithoutTools(t *testing.T) {
	p := &scriptedProvider{replies: []*llm.Message{answer("  42  ")}}
	out, err := New(p, nil, WithSystemPrompt("be brief")).Run(context.Background(), "meaning of life?")

	require.NoError(t, err)
	assert.Equal(t, "42", out)
	require.Len(t, p.histories, 1)
	assert.Equal(t, llm.RoleSystem, p.histories[0][0].Role)
	assert.Equal(t, "meaning of life?", p.histories[0][1].Content)
}

func TestRunFeedsToolResultBack(t *testing.T) {
	tool := &lookupTool{out: "808,437 residents"}
	p := &scriptedProvider{replies: []*llm.Message{
		toolCall("lookup", map[string]interface{}{"input": "population"}),
		answer("The population is 808,437."),
	}}

	out, err := New(p, []Tool{tool}).Run(context.Background(), "population?")

	require.NoError(t, err)
	assert.Equal(t, "The population is 808,437.", out)
	require.Len(t, tool.calls, 1)
	assert.Equal(t, "population", tool.calls[0]["input"])

	second := p.histories[1]
	last := second[len(second)-1]
	assert.Equal(t, llm.RoleTool, last.Role)
	assert.Equal(t, "808,437 residents", last.Content)
	assert.Equal(t, "call-1", last.ToolCallID)
	assert.Equal(t, "lookup", last.ToolName)
}

func TestRunAbsorbsToolErrors(t *testing.T) {
	tests := []struct {
		name     string
		call     string
		toolErr  error
		wantText string
	}{
		{"tool failure", "lookup", errors.New("index offline"), "Error: tool lookup failed: index offline"},
		{"unknown tool", "nope", nil, "Error: tool nope failed: unknown tool"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tool := &lookupTool{err: tt.toolErr}
			p := &scriptedProvider{replies: []*llm.Message{
				toolCall(tt.call, map[string]interface{}{"input": "x"}),
				answer("I could not find that."),
			}}

			out, err := New(p, []Tool{tool}).Run(context.Background(), "q")

			require.NoError(t, err)
			assert.Equal(t, "I could not find that.", out)
			second := p.histories[1]
			assert.Equal(t, tt.wantText, second[len(second)-1].Content)
		})
	}
}

func TestRunReturnsDirectToolOutput(t *testing.T) {
	tool := &lookupTool{out: "Data Not Available", direct: true}
	p := &scriptedProvider{replies: []*llm.Message{toolCall("lookup", map[string]interface{}{"input": "x"})}}

	out, err := New(p, []Tool{tool}).Run(context.Background(), "q")

	require.NoError(t, err)
	assert.Equal(t, "Data Not Available", out)
	assert.Len(t, p.histories, 1)
}

func TestRunExecutesWholeTurnBeforeDirectReturn(t *testing.T) {
	search := &lookupTool{name: "document_vector_tool", out: "budget is 14.6 billion", direct: true}
	publish := &lookupTool{name: "publish_tool", out: "published"}
	p := &scriptedProvider{replies: []*llm.Message{{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{
			{ID: "call-1", Name: "document_vector_tool", Arguments: map[string]interface{}{"input": "budget"}},
			{ID: "call-2", Name: "publish_tool", Arguments: map[string]interface{}{"input": "budget is 14.6 billion"}},
		},
	}}}

	out, err := New(p, []Tool{search, publish}).Run(context.Background(), "find the budget and publish it")

	require.NoError(t, err)
	assert.Equal(t, "budget is 14.6 billion", out)
	assert.Len(t, search.calls, 1)
	require.Len(t, publish.calls, 1)
	assert.Equal(t, "budget is 14.6 billion", publish.calls[0]["input"])
	assert.Len(t, p.histories, 1)
}

func TestRunProviderError(t *testing.T) {
	p := &scriptedProvider{err: errors.New("connection refused")}
	_, err := New(p, nil).Run(context.Background(), "q")

	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "connection refused"))
}

func TestRunStepLimit(t *testing.T) {
	tool := &lookupTool{out: "again"}
	p := &scriptedProvider{}

	_, err := New(p, []Tool{tool}, WithMaxSteps(3)).Run(context.Background(), "q")

	assert.ErrorIs(t, err, ErrMaxSteps)
	assert.Len(t, p.histories, 3)
}

func TestToolErrorUnwrap(t *testing.T) {
	base := errors.New("boom")
	var err error = &ToolError{Tool: "lookup", Err: base}
	assert.ErrorIs(t, err, base)
}
