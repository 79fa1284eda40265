// Package config holds the explicitly constructed configuration that is passed
// into the agent loop, the tools and the renderer. Nothing in this repo reads
// credentials from process-wide state after startup.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

// Provider kinds understood by llm.New.
const (
	KindOpenAICompatible = "openai_compatible"
	KindGemini           = "gemini"
	KindGeminiLegacy     = "gemini_legacy"
	KindQwen             = "qwen"
	KindScripted         = "scripted"
)

// Agent types resolved through agent.Manager.
const (
	AgentStockAnalyst = "stock_analyst"
	AgentNewsAnalyst  = "news_analyst"
)

type Config struct {
	ActiveProvider string                    `yaml:"active_provider"`
	Providers      map[string]ProviderConfig `yaml:"providers"`
	Agents         map[string]AgentConfig    `yaml:"agents"`
	Agent          LoopConfig                `yaml:"agent"`
	Tools          ToolsConfig               `yaml:"tools"`
	ReportsDir     string                    `yaml:"reports_dir"`
	PromptsDir     string                    `yaml:"prompts_dir"` // Optional prompt template overrides
	Renderer       RendererConfig            `yaml:"renderer"`
	Server         ServerConfig              `yaml:"server"`
	Parallelism    int                       `yaml:"parallelism"`
	Log            LogConfig                 `yaml:"log"`
}

type ProviderConfig struct {
	Kind        string  `yaml:"kind"`
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`

	// APIKey is resolved from APIKeyEnv at load time and never serialized.
	APIKey string `yaml:"-"`
}

type AgentConfig struct {
	Provider    string `yaml:"provider"` // Optional override
	Description string `yaml:"description"`
}

type LoopConfig struct {
	MaxIterations       int `yaml:"max_iterations"`
	MaxContextChars     int `yaml:"max_context_chars"`
	MaxObservationChars int `yaml:"max_observation_chars"`
}

type ToolsConfig struct {
	HTTPTimeout       time.Duration `yaml:"http_timeout"`
	UserAgent         string        `yaml:"user_agent"`
	SearchMaxResults  int           `yaml:"search_max_results"`
	MarketDataBaseURL string        `yaml:"market_data_base_url"`
	SearchBaseURL     string        `yaml:"search_base_url"`
	SearchAPIKeyEnv   string        `yaml:"search_api_key_env"`

	SearchAPIKey string `yaml:"-"`
}

type RendererConfig struct {
	WkhtmltopdfPath string        `yaml:"wkhtmltopdf_path"`
	Timeout         time.Duration `yaml:"timeout"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// DefaultUserAgent is sent with article fetches; several news sites reject
// requests without a browser-like client identifier.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36"

// Default returns a complete configuration. The Groq llama model at
// temperature 0.3 is the reference setup.
func Default() Config {
	return Config{
		ActiveProvider: "groq",
		Providers: map[string]ProviderConfig{
			"groq": {
				Kind:        KindOpenAICompatible,
				Model:       "meta-llama/llama-4-scout-17b-16e-instruct",
				BaseURL:     "https://api.groq.com/openai/v1",
				APIKeyEnv:   "GROQ_API_KEY",
				Temperature: 0.3,
			},
			"deepseek": {
				Kind:        KindOpenAICompatible,
				Model:       "deepseek-chat",
				BaseURL:     "https://api.deepseek.com",
				APIKeyEnv:   "DEEPSEEK_API_KEY",
				Temperature: 0.3,
			},
			"openai": {
				Kind:        KindOpenAICompatible,
				Model:       "gpt-4o-mini",
				APIKeyEnv:   "OPENAI_API_KEY",
				Temperature: 0.3,
			},
			"gemini": {
				Kind:        KindGemini,
				Model:       "gemini-2.0-flash",
				APIKeyEnv:   "GEMINI_API_KEY",
				Temperature: 0.3,
			},
			"gemini_legacy": {
				Kind:        KindGeminiLegacy,
				Model:       "gemini-1.5-flash",
				APIKeyEnv:   "GEMINI_API_KEY",
				Temperature: 0.3,
			},
			"qwen": {
				Kind:        KindQwen,
				Model:       "qwen-max",
				BaseURL:     "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation",
				APIKeyEnv:   "DASHSCOPE_API_KEY",
				Temperature: 0.3,
			},
		},
		Agents: map[string]AgentConfig{
			AgentStockAnalyst: {Description: "Structured equity research report for one ticker"},
			AgentNewsAnalyst:  {Description: "Financial news research on a free-text topic"},
		},
		Agent: LoopConfig{
			MaxIterations:       10,
			MaxContextChars:     48000,
			MaxObservationChars: 6000,
		},
		Tools: ToolsConfig{
			HTTPTimeout:       15 * time.Second,
			UserAgent:         DefaultUserAgent,
			SearchMaxResults:  5,
			MarketDataBaseURL: "https://query1.finance.yahoo.com",
			SearchBaseURL:     "https://api.tavily.com",
			SearchAPIKeyEnv:   "TAVILY_API_KEY",
		},
		ReportsDir: "reports",
		Renderer: RendererConfig{
			WkhtmltopdfPath: "wkhtmltopdf",
			Timeout:         60 * time.Second,
		},
		Server:      ServerConfig{Addr: ":8080"},
		Parallelism: 3,
		Log:         LogConfig{Level: "info"},
	}
}

// Load overlays the YAML file at path (if present) onto Default, applies
// environment overrides and resolves API keys.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case os.IsNotExist(err):
			// Defaults only
		default:
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.ResolveKeys()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("RESEARCH_PROVIDER"); v != "" {
		c.ActiveProvider = v
	}
	if v := os.Getenv("RESEARCH_MODEL"); v != "" {
		if p, ok := c.Providers[c.ActiveProvider]; ok {
			p.Model = v
			c.Providers[c.ActiveProvider] = p
		}
	}
	if v := os.Getenv("RESEARCH_MAX_ITERATIONS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid RESEARCH_MAX_ITERATIONS %q: %w", v, err)
		}
		c.Agent.MaxIterations = n
	}
	if v := os.Getenv("REPORTS_DIR"); v != "" {
		c.ReportsDir = v
	}
	return nil
}

// ResolveKeys copies API keys from the environment variables named in the
// config into the non-serialized key fields.
func (c *Config) ResolveKeys() {
	for name, p := range c.Providers {
		if p.APIKeyEnv != "" {
			p.APIKey = os.Getenv(p.APIKeyEnv)
		}
		c.Providers[name] = p
	}
	if c.Tools.SearchAPIKeyEnv != "" {
		c.Tools.SearchAPIKey = os.Getenv(c.Tools.SearchAPIKeyEnv)
	}
}

// Validate rejects configurations the agent loop cannot run with.
func (c Config) Validate() error {
	if _, ok := c.Providers[c.ActiveProvider]; !ok {
		return fmt.Errorf("active provider %q is not configured", c.ActiveProvider)
	}
	for name, a := range c.Agents {
		if a.Provider == "" {
			continue
		}
		if _, ok := c.Providers[a.Provider]; !ok {
			return fmt.Errorf("agent %q references unknown provider %q", name, a.Provider)
		}
	}
	if c.Agent.MaxIterations <= 0 {
		return fmt.Errorf("agent.max_iterations must be positive, got %d", c.Agent.MaxIterations)
	}
	if c.Agent.MaxContextChars <= 0 {
		return fmt.Errorf("agent.max_context_chars must be positive, got %d", c.Agent.MaxContextChars)
	}
	if c.Agent.MaxObservationChars <= 0 {
		return fmt.Errorf("agent.max_observation_chars must be positive, got %d", c.Agent.MaxObservationChars)
	}
	if c.Tools.HTTPTimeout <= 0 {
		return fmt.Errorf("tools.http_timeout must be positive")
	}
	if c.Tools.SearchMaxResults <= 0 {
		return fmt.Errorf("tools.search_max_results must be positive, got %d", c.Tools.SearchMaxResults)
	}
	if c.Parallelism <= 0 {
		return fmt.Errorf("parallelism must be positive, got %d", c.Parallelism)
	}
	return nil
}

// Provider returns the named provider configuration.
func (c Config) Provider(name string) (ProviderConfig, bool) {
	p, ok := c.Providers[name]
	return p, ok
}
