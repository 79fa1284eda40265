// Package tools implements the fixed set of data tools the research agent
// can call. Every tool maps a text input to a text observation; failures
// are reported in the observation, never as Go errors.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

// Name identifies a tool. The set is closed.
type Name string

const (
	StockPrice        Name = "StockPriceTool"
	StockFundamentals Name = "StockFundamentalsTool"
	WebSearch         Name = "TavilySearch"
	ArticleSummarizer Name = "ArticleSummarizer"
)

// AllNames lists the closed tool set in prompt order.
var AllNames = []Name{StockPrice, StockFundamentals, WebSearch, ArticleSummarizer}

var descriptions = map[Name]string{
	StockPrice:        "Returns stock price, high/low, volume, and 52-week data.",
	StockFundamentals: "Returns stock fundamentals like P/E, EPS, Beta, Dividend, Market Cap.",
	WebSearch:         "Searches the web for historical data, analyst reports, or industry context.",
	ArticleSummarizer: "Summarizes news articles or research documents.",
}

// Description returns the fixed description for a tool name.
func Description(n Name) string {
	return descriptions[n]
}

// IsKnown reports whether n belongs to the closed tool set.
func IsKnown(n Name) bool {
	_, ok := descriptions[n]
	return ok
}

var (
	ErrUnknownTool   = errors.New("unknown tool")
	ErrDuplicateTool = errors.New("duplicate tool")
)

// InvokeFunc runs a tool. It must always return observation text.
type InvokeFunc func(ctx context.Context, input string) string

type ToolSpec struct {
	Name        Name
	Description string
	Invoke      InvokeFunc
}

// Registry is an immutable name-to-tool table.
type Registry struct {
	specs map[Name]ToolSpec
	order []Name
}

// NewRegistry validates and indexes specs. Names outside the closed set and
// duplicates are rejected.
func NewRegistry(specs ...ToolSpec) (*Registry, error) {
	r := &Registry{specs: make(map[Name]ToolSpec, len(specs))}
	for _, s := range specs {
		if !IsKnown(s.Name) {
			return nil, fmt.Errorf("%w: %q", ErrUnknownTool, s.Name)
		}
		if _, dup := r.specs[s.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTool, s.Name)
		}
		if s.Invoke == nil {
			return nil, fmt.Errorf("tool %q has no invoke function", s.Name)
		}
		if s.Description == "" {
			s.Description = Description(s.Name)
		}
		r.specs[s.Name] = s
		r.order = append(r.order, s.Name)
	}
	sort.SliceStable(r.order, func(i, j int) bool {
		return rank(r.order[i]) < rank(r.order[j])
	})
	return r, nil
}

func rank(n Name) int {
	for i, k := range AllNames {
		if k == n {
			return i
		}
	}
	return len(AllNames)
}

// Lookup finds a registered tool by its exact name.
func (r *Registry) Lookup(name string) (ToolSpec, bool) {
	s, ok := r.specs[Name(name)]
	return s, ok
}

// Names returns the registered tool names as strings, in prompt order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.order))
	for i, n := range r.order {
		out[i] = string(n)
	}
	return out
}

// Specs returns the registered tools in prompt order.
func (r *Registry) Specs() []ToolSpec {
	out := make([]ToolSpec, len(r.order))
	for i, n := range r.order {
		out[i] = r.specs[n]
	}
	return out
}

// Invoke normalizes input and runs the named tool. ok is false when the name
// is not registered. A panicking tool yields an error observation.
func (r *Registry) Invoke(ctx context.Context, name, input string) (observation string, ok bool) {
	spec, found := r.Lookup(name)
	if !found {
		return "", false
	}

	defer func() {
		if rec := recover(); rec != nil {
			observation = fmt.Sprintf("Error: tool %s failed unexpectedly: %v", name, rec)
			ok = true
		}
	}()

	return spec.Invoke(ctx, NormalizeInput(input)), true
}
