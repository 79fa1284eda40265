package llm

import (
	"context"
	"fmt"
	"sync"
)

// DryRunReply is the canned final answer of the "scripted" provider kind.
const DryRunReply = "## Dry Run\n\nNo model endpoint was called. This report exercises prompt construction and report rendering only."

// ScriptedReply is one canned model turn. A non-nil Err is returned instead of Text.
type ScriptedReply struct {
	Text string
	Err  error
}

// ScriptedProvider replays canned replies in order. Once the script is
// exhausted the last reply repeats, which models a model that never stops
// asking for tools. It records every prompt it receives.
type ScriptedProvider struct {
	mu      sync.Mutex
	replies []ScriptedReply
	next    int
	prompts []string
}

var _ Provider = (*ScriptedProvider)(nil)

func NewScriptedProvider(replies ...string) *ScriptedProvider {
	p := &ScriptedProvider{}
	for _, r := range replies {
		p.replies = append(p.replies, ScriptedReply{Text: r})
	}
	return p
}

// Then appends a reply and returns the provider for chaining.
func (p *ScriptedProvider) Then(reply ScriptedReply) *ScriptedProvider {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.replies = append(p.replies, reply)
	return p
}

func (p *ScriptedProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.prompts = append(p.prompts, prompt)
	if len(p.replies) == 0 {
		return "", fmt.Errorf("scripted provider has no replies")
	}

	idx := p.next
	if idx >= len(p.replies) {
		idx = len(p.replies) - 1
	} else {
		p.next++
	}
	reply := p.replies[idx]
	if reply.Err != nil {
		return "", reply.Err
	}
	return reply.Text, nil
}

func (p *ScriptedProvider) AdaptInstructions(raw string) string {
	return raw
}

// Prompts returns a copy of every prompt received so far.
func (p *ScriptedProvider) Prompts() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.prompts...)
}

// Calls reports how many times the provider was invoked.
func (p *ScriptedProvider) Calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.prompts)
}
