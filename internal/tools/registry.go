// Package tools defines the tool invocation seam and the builtin registry.
//
// The Invoker interface is where a transport to real tool servers would
// plug in; the builtin Registry serves the calculator and clock tools the
// agent ships with.
package tools

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gamasenninn/mcp-agent/internal/models"
)

// Invoker executes one named tool with parameters and returns its raw
// string result. Failures carry an InvocationError so the classifier can
// tell parameter mistakes from transient faults.
type Invoker interface {
	Invoke(ctx context.Context, tool string, params map[string]any) (string, error)
	Catalog() string
}

// Tool is one callable entry in the registry.
type Tool struct {
	Name        string
	Description string
	Params      []string
	Run         func(ctx context.Context, params map[string]any) (string, error)
}

// Registry is the builtin Invoker.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a registry preloaded with the builtin tools.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	r.register(Tool{
		Name: "add", Description: "Add two numbers", Params: []string{"a", "b"},
		Run: binaryOp(func(a, b float64) (float64, error) { return a + b, nil }),
	})
	r.register(Tool{
		Name: "subtract", Description: "Subtract b from a", Params: []string{"a", "b"},
		Run: binaryOp(func(a, b float64) (float64, error) { return a - b, nil }),
	})
	r.register(Tool{
		Name: "multiply", Description: "Multiply two numbers", Params: []string{"a", "b"},
		Run: binaryOp(func(a, b float64) (float64, error) { return a * b, nil }),
	})
	r.register(Tool{
		Name: "divide", Description: "Divide a by b", Params: []string{"a", "b"},
		Run: binaryOp(func(a, b float64) (float64, error) {
			if b == 0 {
				return 0, fmt.Errorf("division by zero")
			}
			return a / b, nil
		}),
	})
	r.register(Tool{
		Name: "power", Description: "Raise base to exponent", Params: []string{"base", "exponent"},
		Run: func(ctx context.Context, params map[string]any) (string, error) {
			base, err := numArg(params, "base")
			if err != nil {
				return "", err
			}
			exponent, err := numArg(params, "exponent")
			if err != nil {
				return "", err
			}
			return formatNumber(math.Pow(base, exponent)), nil
		},
	})
	r.register(Tool{
		Name: "now", Description: "Current date and time", Params: []string{},
		Run: func(ctx context.Context, params map[string]any) (string, error) {
			return time.Now().Format(time.RFC3339), nil
		},
	})
	return r
}

func (r *Registry) register(t Tool) {
	r.tools[t.Name] = t
	r.order = append(r.order, t.Name)
}

// Register adds or replaces a tool. Used by tests and by embedders that
// extend the builtin set.
func (r *Registry) Register(t Tool) {
	if _, exists := r.tools[t.Name]; !exists {
		r.order = append(r.order, t.Name)
	}
	r.tools[t.Name] = t
}

// Invoke implements Invoker. An unknown tool is a parameter error: the
// planner named something that doesn't exist.
func (r *Registry) Invoke(ctx context.Context, tool string, params map[string]any) (string, error) {
	t, ok := r.tools[tool]
	if !ok {
		return "", models.NewInvocationError(models.InvocationParameter, tool,
			fmt.Errorf("no such tool %q", tool))
	}
	if err := ctx.Err(); err != nil {
		return "", models.NewInvocationError(models.InvocationTransient, tool, err)
	}

	result, err := t.Run(ctx, params)
	if err != nil {
		var invErr *models.InvocationError
		if errors.As(err, &invErr) {
			return "", err
		}
		return "", models.NewInvocationError(models.InvocationParameter, tool, err)
	}
	return result, nil
}

// Catalog renders the tool list for planning prompts.
func (r *Registry) Catalog() string {
	var b strings.Builder
	for _, name := range r.order {
		t := r.tools[name]
		params := "none"
		if len(t.Params) > 0 {
			params = strings.Join(t.Params, ", ")
		}
		fmt.Fprintf(&b, "- %s(%s): %s\n", t.Name, params, t.Description)
	}
	return b.String()
}

// Names returns the registered tool names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func binaryOp(op func(a, b float64) (float64, error)) func(context.Context, map[string]any) (string, error) {
	return func(ctx context.Context, params map[string]any) (string, error) {
		a, err := numArg(params, "a")
		if err != nil {
			return "", err
		}
		b, err := numArg(params, "b")
		if err != nil {
			return "", err
		}
		result, err := op(a, b)
		if err != nil {
			return "", err
		}
		return formatNumber(result), nil
	}
}

// numArg extracts a numeric parameter, accepting JSON numbers and numeric
// strings (clarification answers arrive as text).
func numArg(params map[string]any, name string) (float64, error) {
	raw, ok := params[name]
	if !ok {
		return 0, fmt.Errorf("missing parameter %q", name)
	}
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid parameter %q: %q is not a number", name, v)
		}
		return parsed, nil
	default:
		return 0, fmt.Errorf("invalid parameter %q: unsupported type %T", name, raw)
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
