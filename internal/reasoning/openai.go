package reasoning

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/gamasenninn/mcp-agent/internal/logger"
	"github.com/gamasenninn/mcp-agent/internal/models"
)

// Options configures the OpenAI-backed collaborator.
type Options struct {
	Model       string
	BaseURL     string
	APIKeyEnv   string
	Temperature float64
}

// OpenAI is the Collaborator implementation backed by the OpenAI chat
// completions API with JSON-object responses.
type OpenAI struct {
	client      openai.Client
	model       string
	temperature float64
	log         logger.Logger
}

// NewOpenAI creates the collaborator, reading the API key from the
// configured environment variable.
func NewOpenAI(opts Options, log logger.Logger) (*OpenAI, error) {
	keyEnv := opts.APIKeyEnv
	if keyEnv == "" {
		keyEnv = "OPENAI_API_KEY"
	}
	apiKey := os.Getenv(keyEnv)
	if strings.TrimSpace(apiKey) == "" {
		return nil, &models.ConfigurationError{
			Field:  "reasoning.api_key_env",
			Reason: fmt.Sprintf("environment variable %s is empty", keyEnv),
		}
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &OpenAI{
		client:      openai.NewClient(clientOpts...),
		model:       opts.Model,
		temperature: opts.Temperature,
		log:         log,
	}, nil
}

// complete runs one JSON-object chat completion and returns the raw
// content.
func (o *OpenAI) complete(ctx context.Context, system, user string) (string, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(o.temperature),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", models.NewInvocationError(models.InvocationTransient, "reasoning", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("reasoning: empty completion response")
	}
	return resp.Choices[0].Message.Content, nil
}

// ClassifyIntent implements Collaborator. A malformed response degrades to
// NeedsTool so the request still gets a chance to run.
func (o *OpenAI) ClassifyIntent(ctx context.Context, query string, recent []models.Entry) (IntentResult, error) {
	user := fmt.Sprintf("Recent conversation:\n%s\nRequest: %s", renderEntries(recent), query)
	content, err := o.complete(ctx, intentSystemPrompt, user)
	if err != nil {
		return IntentResult{}, err
	}

	var result IntentResult
	if err := json.Unmarshal([]byte(content), &result); err != nil || !validIntent(result.Intent) {
		o.log.LogWarn(fmt.Sprintf("intent response unparseable, assuming tool use: %.120s", content))
		return IntentResult{Intent: models.IntentNeedsTool}, nil
	}
	return result, nil
}

func validIntent(intent models.Intent) bool {
	switch intent {
	case models.IntentNoAction, models.IntentNeedsClarification, models.IntentNeedsTool:
		return true
	}
	return false
}

// PlanTasks implements Collaborator.
func (o *OpenAI) PlanTasks(ctx context.Context, query string, recent []models.Entry, catalog string) (models.Plan, error) {
	user := fmt.Sprintf("Tool catalog:\n%s\n\nRecent conversation:\n%s\nRequest: %s",
		catalog, renderEntries(recent), query)
	content, err := o.complete(ctx, planSystemPrompt, user)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Tasks []models.PlanStep `json:"tasks"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return nil, fmt.Errorf("reasoning: unparseable plan response: %w", err)
	}
	return models.Plan(parsed.Tasks), nil
}

// JudgeResult implements Collaborator. Parse failures are returned as
// errors; the classifier treats them as fatal rather than guessing.
func (o *OpenAI) JudgeResult(ctx context.Context, task *models.Task, raw string, execCtx models.ExecutionContext, failures []PriorFailure) (Judgment, error) {
	params, _ := json.Marshal(task.Params)
	user := fmt.Sprintf("Task: %s\nTool: %s\nParameters: %s\nRaw result: %s\n\nRecent execution context:\n%s\nPrevious failed attempts of this tool:\n%s",
		task.Description, task.Tool, params, raw, renderContext(execCtx.Tail(5)), renderFailures(failures))
	content, err := o.complete(ctx, judgeSystemPrompt, user)
	if err != nil {
		return Judgment{}, err
	}

	var j Judgment
	if err := json.Unmarshal([]byte(content), &j); err != nil {
		return Judgment{}, fmt.Errorf("reasoning: unparseable judgment %q: %w", truncate(content, 120), err)
	}
	return j, nil
}

// Interpret implements Collaborator.
func (o *OpenAI) Interpret(ctx context.Context, query string, execCtx models.ExecutionContext) (string, error) {
	user := fmt.Sprintf("Original request: %s\n\nResults in order:\n%s", query, renderContext(execCtx))
	content, err := o.complete(ctx, interpretSystemPrompt, user)
	if err != nil {
		return "", err
	}

	var parsed struct {
		Answer string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil || parsed.Answer == "" {
		// Fall back to the raw content; a readable sentence beats an error
		// at the very end of a run.
		return strings.TrimSpace(content), nil
	}
	return parsed.Answer, nil
}

func renderEntries(entries []models.Entry) string {
	if len(entries) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, e := range entries {
		fmt.Fprintf(&b, "%s: %s\n", e.Role, e.Text)
	}
	return b.String()
}

func renderContext(execCtx models.ExecutionContext) string {
	if len(execCtx) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, entry := range execCtx {
		fmt.Fprintf(&b, "task_%d %s (%s) -> %s\n", entry.TaskID, entry.Description, entry.Tool, entry.Result)
	}
	return b.String()
}

func renderFailures(failures []PriorFailure) string {
	if len(failures) == 0 {
		return "(none)\n"
	}
	var b strings.Builder
	for _, f := range failures {
		params, _ := json.Marshal(f.Params)
		fmt.Fprintf(&b, "params %s -> %s (%s)\n", params, f.Error, f.Class)
	}
	return b.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
