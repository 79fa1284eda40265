package agent

import (
	"fmt"
	"sort"
	"sync"

	"stock_research/pkg/core/config"
	"stock_research/pkg/core/llm"
)

// Manager resolves which LLM provider serves which agent type.
type Manager struct {
	mu             sync.RWMutex
	activeProvider string
	agents         map[string]config.AgentConfig
	providers      map[string]llm.Provider
}

// NewManager builds every configured provider up front so that a bad
// configuration fails at startup rather than mid-run.
func NewManager(cfg config.Config) (*Manager, error) {
	providers := make(map[string]llm.Provider, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		p, err := llm.New(name, pc)
		if err != nil {
			return nil, err
		}
		providers[name] = p
	}
	return NewManagerWithProviders(cfg.ActiveProvider, cfg.Agents, providers)
}

// NewManagerWithProviders wires pre-built providers, mainly for tests and the dry-run mode.
func NewManagerWithProviders(active string, agents map[string]config.AgentConfig, providers map[string]llm.Provider) (*Manager, error) {
	if _, ok := providers[active]; !ok {
		return nil, fmt.Errorf("active provider %q not found", active)
	}
	if agents == nil {
		agents = map[string]config.AgentConfig{}
	}
	return &Manager{
		activeProvider: active,
		agents:         agents,
		providers:      providers,
	}, nil
}

// GetProvider returns the provider for an agent type: the agent-specific
// override when configured, otherwise the active provider.
func (m *Manager) GetProvider(agentType string) (llm.Provider, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if agentConfig, ok := m.agents[agentType]; ok && agentConfig.Provider != "" {
		if p, ok := m.providers[agentConfig.Provider]; ok {
			return p, nil
		}
		return nil, fmt.Errorf("agent %q: provider %q not found", agentType, agentConfig.Provider)
	}

	if p, ok := m.providers[m.activeProvider]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("active provider %q not found", m.activeProvider)
}

func (m *Manager) SetGlobalProvider(newProvider string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.providers[newProvider]; !ok {
		return fmt.Errorf("provider %s not found", newProvider)
	}
	m.activeProvider = newProvider
	return nil
}

func (m *Manager) ActiveProvider() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.activeProvider
}

// ProviderNames lists configured providers in sorted order.
func (m *Manager) ProviderNames() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.providers))
	for name := range m.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
