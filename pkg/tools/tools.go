package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docqa-be/pkg/agent"
	"docqa-be/pkg/llm"
	"docqa-be/pkg/notify"
	"docqa-be/pkg/relevance"
)

const (
	DocumentToolName = "document_vector_tool"
	PublishToolName  = "publish_tool"
)

var ErrMissingArgument = errors.New("missing argument")

// DocumentTool answers one question at a time from the document index,
// behind the relevance gate.
type DocumentTool struct {
	searcher     *relevance.GatedSearcher
	returnDirect bool
}

var (
	_ agent.Tool       = (*DocumentTool)(nil)
	_ agent.DirectTool = (*DocumentTool)(nil)
)

func NewDocumentTool(searcher *relevance.GatedSearcher, returnDirect bool) *DocumentTool {
	return &DocumentTool{searcher: searcher, returnDirect: returnDirect}
}

func (t *DocumentTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        DocumentToolName,
		Description: "Useful for answering a single question at a time about the provided document.",
		Params: []llm.ToolParam{
			{Name: "input", Type: "string", Description: "One self-contained question about the document.", Required: true},
		},
	}
}

func (t *DocumentTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	q := stringArg(args, "input", "query", "question")
	if q == "" {
		return "", fmt.Errorf("%w: input", ErrMissingArgument)
	}
	res, err := t.searcher.Search(ctx, q)
	if err != nil {
		return "", err
	}
	return res.Text, nil
}

func (t *DocumentTool) ReturnDirect() bool {
	return t.returnDirect
}

// PublishTool posts a message through the notifier for one request.
type PublishTool struct {
	notifier  notify.Notifier
	requestID string
	userID    string
}

var _ agent.Tool = (*PublishTool)(nil)

func NewPublishTool(n notify.Notifier, requestID, userID string) *PublishTool {
	return &PublishTool{notifier: n, requestID: requestID, userID: userID}
}

func (t *PublishTool) Spec() llm.ToolSpec {
	return llm.ToolSpec{
		Name:        PublishToolName,
		Description: "Posts a message to the team channel. Use it only when asked to post, share or send something.",
		Params: []llm.ToolParam{
			{Name: "message", Type: "string", Description: "The full text to post.", Required: true},
		},
	}
}

func (t *PublishTool) Call(ctx context.Context, args map[string]interface{}) (string, error) {
	msg := stringArg(args, "message", "text")
	if msg == "" {
		return "", fmt.Errorf("%w: message", ErrMissingArgument)
	}
	if err := t.notifier.Publish(ctx, notify.Message{
		RequestID: t.requestID,
		UserID:    t.userID,
		Text:      msg,
	}); err != nil {
		return "", err
	}
	return "Message posted to the channel.", nil
}

// stringArg returns the first non-empty string among keys. Models are not
// always faithful to the declared parameter name.
func stringArg(args map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if v, ok := args[k].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
