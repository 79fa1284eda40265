package prompt

import (
	"fmt"
	"sort"
	"sync"
)

// Registry holds all loaded prompts
type Registry struct {
	prompts map[string]*PromptTemplate
	mu      sync.RWMutex
}

func NewRegistry() *Registry {
	return &Registry{prompts: make(map[string]*PromptTemplate)}
}

var (
	defaultRegistry *Registry
	defaultErr      error
	once            sync.Once
)

// Default returns the registry of embedded prompts, loaded on first use.
func Default() (*Registry, error) {
	once.Do(func() {
		defaultRegistry, defaultErr = loadEmbedded()
	})
	return defaultRegistry, defaultErr
}

// Register adds a prompt template to the registry, replacing any prompt with the same ID.
func (r *Registry) Register(pt *PromptTemplate) error {
	if pt.ID == "" {
		return fmt.Errorf("prompt ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.prompts[pt.ID] = pt
	return nil
}

// GetPrompt retrieves a prompt by ID
func (r *Registry) GetPrompt(id string) (*PromptTemplate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if p, ok := r.prompts[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("prompt not found: %s", id)
}

// IDs returns all registered prompt IDs, sorted.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.prompts))
	for id := range r.prompts {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Count returns the number of registered prompts
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.prompts)
}

// Clone returns an independent copy, so overrides never touch the shared default.
func (r *Registry) Clone() *Registry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c := NewRegistry()
	for id, pt := range r.prompts {
		cp := *pt
		c.prompts[id] = &cp
	}
	return c
}
