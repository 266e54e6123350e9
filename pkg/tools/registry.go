package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"courserag/internal/models"
)

// Tool names as announced to the model.
const (
	SearchCourseContent = "search_course_content"
	GetCourseOutline    = "get_course_outline"
)

// ErrUnknownTool is returned when the model requests a name no tool claims.
var ErrUnknownTool = errors.New("unknown tool")

// Result carries a tool's formatted output for the model plus the sources it
// consulted. Sources travel back through the call chain; there is no shared
// last-sources register to reset between queries.
type Result struct {
	Output  string
	Sources []models.Source
}

// Tool is one callable capability offered to the model.
type Tool interface {
	Name() string
	Definition() llms.Tool
	Call(ctx context.Context, args json.RawMessage) (Result, error)
}

// Registry maps tool names to implementations for per-call dispatch.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, tool := range tools {
		r.Register(tool)
	}
	return r
}

func (r *Registry) Register(tool Tool) {
	if _, exists := r.tools[tool.Name()]; !exists {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Definitions lists every registered tool's schema in registration order.
func (r *Registry) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Call dispatches one model-requested invocation.
func (r *Registry) Call(ctx context.Context, name string, args json.RawMessage) (Result, error) {
	tool, ok := r.tools[name]
	if !ok {
		return Result{}, fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool.Call(ctx, args)
}
