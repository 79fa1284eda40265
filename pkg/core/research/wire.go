package research

import (
	"fmt"

	"stock_research/pkg/core/agent"
	"stock_research/pkg/core/config"
	"stock_research/pkg/core/prompt"
	"stock_research/pkg/core/report"
	"stock_research/pkg/core/tools"

	"go.uber.org/zap"
)

// RenderMode selects the artifact written for each report.
type RenderMode int

const (
	RenderPDF RenderMode = iota
	RenderHTML
	RenderNone
)

// FromConfig builds a Service with live data clients from configuration.
func FromConfig(cfg config.Config, mode RenderMode, logger *zap.Logger) (*Service, *agent.Manager, error) {
	mgr, err := agent.NewManager(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build providers: %w", err)
	}

	registry, err := tools.Default(tools.NewClients(cfg.Tools))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build tools: %w", err)
	}

	var renderer report.Renderer
	switch mode {
	case RenderPDF:
		renderer = report.NewPDFRenderer(cfg.ReportsDir, cfg.Renderer.WkhtmltopdfPath, cfg.Renderer.Timeout)
	case RenderHTML:
		renderer = &report.HTMLRenderer{ReportsDir: cfg.ReportsDir}
	}

	opts := OptionsFromConfig(cfg, logger)
	if cfg.PromptsDir != "" {
		prompts, err := prompt.LoadFromDirectory(cfg.PromptsDir)
		if err != nil {
			return nil, nil, err
		}
		opts.Prompts = prompts
	}

	svc, err := NewService(mgr, registry, renderer, opts)
	if err != nil {
		return nil, nil, err
	}
	return svc, mgr, nil
}

// DryRun rewires cfg so every agent uses the offline scripted provider.
func DryRun(cfg config.Config) config.Config {
	providers := make(map[string]config.ProviderConfig, len(cfg.Providers)+1)
	for name, pc := range cfg.Providers {
		providers[name] = pc
	}
	providers["dry_run"] = config.ProviderConfig{Kind: config.KindScripted, Model: "dry-run"}
	cfg.Providers = providers
	cfg.ActiveProvider = "dry_run"
	cfg.Agents = nil
	return cfg
}
