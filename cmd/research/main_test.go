package main

import (
	"path/filepath"
	"strings"
	"testing"

	"stock_research/pkg/core/research"
)

func withFlags(t *testing.T, prov string, dry, noPdf, html bool) {
	t.Helper()
	oldPath, oldProvider, oldDry, oldNoPDF, oldHTML := configPath, provider, dryRun, noPDF, htmlOnly
	t.Cleanup(func() {
		configPath, provider, dryRun, noPDF, htmlOnly = oldPath, oldProvider, oldDry, oldNoPDF, oldHTML
	})
	configPath = filepath.Join(t.TempDir(), "missing.yaml")
	provider, dryRun, noPDF, htmlOnly = prov, dry, noPdf, html
}

func TestLoadConfig_UnknownProvider(t *testing.T) {
	withFlags(t, "nope", false, true, false)

	_, _, err := loadConfig()
	if err == nil || !strings.Contains(err.Error(), `unknown provider "nope"`) {
		t.Fatalf("Expected unknown provider error, got %v", err)
	}
}

func TestLoadConfig_ProviderAndModes(t *testing.T) {
	withFlags(t, "deepseek", false, false, true)

	cfg, mode, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.ActiveProvider != "deepseek" {
		t.Errorf("Expected deepseek, got %s", cfg.ActiveProvider)
	}
	if mode != research.RenderHTML {
		t.Errorf("Expected RenderHTML, got %d", mode)
	}

	noPDF, htmlOnly = true, false
	if _, mode, _ = loadConfig(); mode != research.RenderNone {
		t.Errorf("Expected RenderNone, got %d", mode)
	}
}

func TestLoadConfig_DryRun(t *testing.T) {
	withFlags(t, "", true, true, false)

	cfg, _, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig failed: %v", err)
	}
	if cfg.ActiveProvider != "dry_run" {
		t.Errorf("Expected dry_run provider, got %s", cfg.ActiveProvider)
	}
}
