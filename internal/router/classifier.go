package router

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/nugget/jobtrack/internal/intent"
	"github.com/nugget/jobtrack/internal/llm"
	"github.com/nugget/jobtrack/internal/prompts"
	"github.com/nugget/jobtrack/internal/retry"
)

// classificationSchema constrains structured replies to
// {"classification": "<label>"}.
var classificationSchema = func() json.RawMessage {
	b, err := json.Marshal(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"classification": map[string]any{
				"type": "string",
				"enum": intent.Labels(),
			},
		},
		"required": []string{"classification"},
	})
	if err != nil {
		panic(err)
	}
	return b
}()

// LLMClassifier classifies utterances with a chat model.
type LLMClassifier struct {
	client  llm.Client
	model   string
	prompts *prompts.Set
	logger  *slog.Logger
}

// NewLLMClassifier creates a classifier backed by client and model.
func NewLLMClassifier(client llm.Client, model string, p *prompts.Set, logger *slog.Logger) *LLMClassifier {
	if p == nil {
		p = prompts.Defaults()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &LLMClassifier{client: client, model: model, prompts: p, logger: logger}
}

// Classify asks the model for a label. The label is normalized but not
// validated; the router decides whether it is acceptable.
func (c *LLMClassifier) Classify(ctx context.Context, utterance string) (intent.Intent, error) {
	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: c.prompts.ClassifierSystemPrompt()},
		{Role: llm.RoleUser, Content: c.prompts.ClassifierUserPrompt(utterance)},
	}

	var (
		resp *llm.ChatResponse
		err  error
	)
	if sc, ok := c.client.(llm.StructuredClient); ok {
		resp, err = sc.ChatFormat(ctx, c.model, messages, classificationSchema)
	} else {
		resp, err = c.client.Chat(ctx, c.model, messages, nil)
	}
	if err != nil {
		if llm.IsPermanent(err) {
			return "", retry.Permanent(err)
		}
		return "", err
	}

	label, err := parseClassification(resp.Message.Content)
	if err != nil {
		return "", retry.Permanent(err)
	}
	c.logger.Debug("classifier replied", "model", c.model, "label", string(label))
	return label, nil
}

// parseClassification accepts {"classification": "x"}, optionally in a
// markdown code fence, or a bare label.
func parseClassification(content string) (intent.Intent, error) {
	text := strings.TrimSpace(content)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errors.New("classifier returned an empty reply")
	}

	if strings.HasPrefix(text, "{") {
		var out struct {
			Classification string `json:"classification"`
		}
		if err := json.Unmarshal([]byte(text), &out); err != nil {
			return "", fmt.Errorf("decode classification: %w", err)
		}
		text = out.Classification
	}

	label := strings.ToLower(strings.Trim(strings.TrimSpace(text), `"'`))
	if label == "" {
		return "", errors.New("classifier returned no label")
	}
	return intent.Intent(label), nil
}
