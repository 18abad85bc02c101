package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docqa-be/internal/pkg/logger"
	"docqa-be/pkg/llm"
)

const defaultMaxSteps = 6

var (
	ErrMaxSteps    = errors.New("agent reached its step limit without a final answer")
	ErrUnknownTool = errors.New("unknown tool")
)

// Tool is something the model may call by name.
type Tool interface {
	Spec() llm.ToolSpec
	Call(ctx context.Context, args map[string]interface{}) (string, error)
}

// DirectTool marks tools whose successful output ends the run and becomes
// the agent's answer.
type DirectTool interface {
	ReturnDirect() bool
}

// ToolError is a failed tool invocation. The agent never returns it; the
// text goes back to the model as the tool result.
type ToolError struct {
	Tool string
	Err  error
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }

// Agent runs a bounded tool-calling loop against one provider.
type Agent struct {
	provider     llm.LLMProvider
	tools        map[string]Tool
	specs        []llm.ToolSpec
	systemPrompt string
	maxSteps     int
	logger       logger.ILogger
}

type Option func(*Agent)

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) { a.systemPrompt = prompt }
}

func WithMaxSteps(n int) Option {
	return func(a *Agent) {
		if n > 0 {
			a.maxSteps = n
		}
	}
}

func WithLogger(l logger.ILogger) Option {
	return func(a *Agent) { a.logger = l }
}

func New(provider llm.LLMProvider, tools []Tool, opts ...Option) *Agent {
	a := &Agent{
		provider: provider,
		tools:    make(map[string]Tool, len(tools)),
		maxSteps: defaultMaxSteps,
		logger:   logger.NewNopLogger(),
	}
	for _, t := range tools {
		spec := t.Spec()
		a.tools[spec.Name] = t
		a.specs = append(a.specs, spec)
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run gives the task to the model and executes the tool calls it asks for
// until it answers in plain text.
func (a *Agent) Run(ctx context.Context, task string) (string, error) {
	history := make([]llm.Message, 0, 2+2*a.maxSteps)
	if a.systemPrompt != "" {
		history = append(history, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	}
	history = append(history, llm.Message{Role: llm.RoleUser, Content: task})

	var last string
	for step := 0; step < a.maxSteps; step++ {
		reply, err := a.provider.ChatWithTools(ctx, history, a.specs)
		if err != nil {
			return "", fmt.Errorf("agent step %d: %w", step+1, err)
		}
		last = strings.TrimSpace(reply.Content)
		if len(reply.ToolCalls) == 0 {
			return last, nil
		}

		history = append(history, *reply)
		// Every call in the turn runs; the first direct output wins.
		var directOut string
		hasDirect := false
		for _, call := range reply.ToolCalls {
			out, direct := a.invoke(ctx, call)
			if direct && !hasDirect {
				directOut, hasDirect = out, true
			}
			history = append(history, llm.Message{
				Role:       llm.RoleTool,
				Content:    out,
				ToolCallID: call.ID,
				ToolName:   call.Name,
			})
		}
		if hasDirect {
			return directOut, nil
		}
	}

	if last != "" {
		return last, nil
	}
	return "", ErrMaxSteps
}

func (a *Agent) invoke(ctx context.Context, call llm.ToolCall) (string, bool) {
	tool, ok := a.tools[call.Name]
	if !ok {
		return a.absorb(&ToolError{Tool: call.Name, Err: ErrUnknownTool}), false
	}

	out, err := tool.Call(ctx, call.Arguments)
	if err != nil {
		return a.absorb(&ToolError{Tool: call.Name, Err: err}), false
	}

	a.logger.Debug("Agent", "Tool call completed", map[string]interface{}{
		"tool":   call.Name,
		"output": truncate(out, 200),
	})

	if d, ok := tool.(DirectTool); ok && d.ReturnDirect() {
		return out, true
	}
	return out, false
}

func (a *Agent) absorb(err *ToolError) string {
	a.logger.Warn("Agent", "Tool call failed", map[string]interface{}{
		"tool":  err.Tool,
		"error": err.Error(),
	})
	return "Error: " + err.Error()
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
