package tools

import (
	"context"
	"fmt"
)

// Tool is one externally reachable capability. Invoke failures are regular
// errors; the orchestrator decides how to degrade them.
type Tool interface {
	Name() string
	Description() string
	Invoke(ctx context.Context, args map[string]interface{}) (string, error)
}

// Registry is the explicit name to capability table, built once at startup.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: make(map[string]Tool, len(tools))}
	for _, t := range tools {
		if _, exists := r.tools[t.Name()]; exists {
			continue
		}
		r.tools[t.Name()] = t
		r.order = append(r.order, t.Name())
	}
	return r
}

// Names lists registered tools in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Describe renders one line per tool for planning prompts.
func (r *Registry) Describe() []string {
	out := make([]string, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, fmt.Sprintf("%s: %s", name, r.tools[name].Description()))
	}
	return out
}

// Invoke dispatches to the named tool. An unknown name is an error result,
// not a panic; the caller records it against that call only.
func (r *Registry) Invoke(ctx context.Context, name string, args map[string]interface{}) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q, available: %v", name, r.order)
	}
	return tool.Invoke(ctx, args)
}

// Has reports whether a tool is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.tools[name]
	return ok
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// stringArg pulls a string argument with an empty-string default.
func stringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// floatArg pulls a numeric argument, tolerating JSON's float64 and ints.
func floatArg(args map[string]interface{}, key string, fallback float64) float64 {
	switch v := args[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	}
	return fallback
}

// intArg pulls an integer argument.
func intArg(args map[string]interface{}, key string, fallback int) int {
	switch v := args[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return fallback
}
