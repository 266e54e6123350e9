package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/tmc/langchaingo/llms"

	"courserag/internal/models"
	"courserag/pkg/tools"
)

// ErrGenerationFailed tags model API failures. Failed queries are not
// retried; the error surfaces to the caller as-is.
var ErrGenerationFailed = errors.New("generation failed")

// maxToolRounds caps how many tool rounds one query may trigger. The system
// prompt states the same limit, but this guard holds even when the model
// ignores the instruction.
const maxToolRounds = 2

// ToolRunner dispatches model-requested tool calls. *tools.Registry
// implements it.
type ToolRunner interface {
	Definitions() []llms.Tool
	Call(ctx context.Context, name string, args json.RawMessage) (tools.Result, error)
}

// Result is one finished generation: the answer text plus every source the
// query's tool calls consulted, in call order.
type Result struct {
	Answer  string
	Sources []models.Source
}

// Generator drives the tool-calling exchange for one query. The first model
// call offers the runner's tools; each requested call is executed and its
// output fed back. After maxToolRounds rounds the conversation is resent
// with tools withheld, forcing the model to synthesize an answer.
type Generator struct {
	model       llms.Model
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

func NewGenerator(model llms.Model, config Config, logger *slog.Logger) *Generator {
	if config.MaxTokens <= 0 {
		config.MaxTokens = 800
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Generator{
		model:       model,
		maxTokens:   config.MaxTokens,
		temperature: config.Temperature,
		logger:      logger,
	}
}

// Generate answers one query. history, when non-empty, is rendered prior
// conversation embedded into the system prompt; runner may be nil to
// generate without tools. A reply with no tool calls is final immediately.
//
// Model API errors wrap ErrGenerationFailed; tool failures keep their own
// error chain (store outages stay recognizable as such).
func (g *Generator) Generate(ctx context.Context, query, history string, runner ToolRunner) (Result, error) {
	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, systemContent(history)),
		llms.TextParts(llms.ChatMessageTypeHuman, query),
	}

	var defs []llms.Tool
	if runner != nil {
		defs = runner.Definitions()
	}

	choice, err := g.call(ctx, messages, defs)
	if err != nil {
		return Result{}, err
	}

	var sources []models.Source
	for round := 1; round <= maxToolRounds && len(choice.ToolCalls) > 0; round++ {
		messages = append(messages, assistantTurn(choice))

		for _, call := range choice.ToolCalls {
			if call.FunctionCall == nil {
				continue
			}
			result, err := runner.Call(ctx, call.FunctionCall.Name, json.RawMessage(call.FunctionCall.Arguments))
			if err != nil {
				return Result{}, err
			}
			g.logger.Debug("tool executed",
				"tool", call.FunctionCall.Name,
				"round", round,
				"sources", len(result.Sources))

			sources = append(sources, result.Sources...)
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: call.ID,
					Name:       call.FunctionCall.Name,
					Content:    result.Output,
				}},
			})
		}

		// The final round resends the conversation without tools; the model
		// has to answer with what it has.
		if round == maxToolRounds {
			defs = nil
		}
		choice, err = g.call(ctx, messages, defs)
		if err != nil {
			return Result{}, err
		}
	}

	return Result{Answer: choice.Content, Sources: sources}, nil
}

func (g *Generator) call(ctx context.Context, messages []llms.MessageContent, defs []llms.Tool) (*llms.ContentChoice, error) {
	opts := []llms.CallOption{
		llms.WithMaxTokens(g.maxTokens),
		llms.WithTemperature(g.temperature),
	}
	if len(defs) > 0 {
		opts = append(opts, llms.WithTools(defs))
	}

	resp, err := g.model.GenerateContent(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: model returned no choices", ErrGenerationFailed)
	}
	return resp.Choices[0], nil
}

// assistantTurn rebuilds the model's reply as a conversation message: text
// first, then the tool-call parts.
func assistantTurn(choice *llms.ContentChoice) llms.MessageContent {
	msg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
	if choice.Content != "" {
		msg.Parts = append(msg.Parts, llms.TextContent{Text: choice.Content})
	}
	for _, call := range choice.ToolCalls {
		msg.Parts = append(msg.Parts, call)
	}
	return msg
}
