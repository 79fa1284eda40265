package prompt

import (
	"bytes"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

//go:embed templates
var embedded embed.FS

func loadEmbedded() (*Registry, error) {
	r := NewRegistry()
	if err := loadPrompts(r, embedded, "templates"); err != nil {
		return nil, fmt.Errorf("failed to load embedded prompts: %w", err)
	}
	return r, nil
}

// LoadFromDirectory returns the embedded prompts overlaid with every .json
// prompt found under dir.
// Expected structure:
//
//	dir/
//	  stock/
//	    analysis.json   -> "stock.analysis"
//	  news/
//	    research.json   -> "news.research"
func LoadFromDirectory(dir string) (*Registry, error) {
	base, err := Default()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("prompts directory not found: %s", dir)
	}

	r := base.Clone()
	if err := loadPrompts(r, os.DirFS(dir), "."); err != nil {
		return nil, fmt.Errorf("failed to load prompts: %w", err)
	}
	return r, nil
}

// loadPrompts recursively loads all .json files under root
func loadPrompts(r *Registry, fsys fs.FS, root string) error {
	return fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		// Skip directories and non-JSON files
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		var pt PromptTemplate
		if err := json.Unmarshal(data, &pt); err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}

		// Auto-generate ID from path if not specified
		if pt.ID == "" {
			pt.ID = generateIDFromPath(path, root)
		}
		if pt.Category == "" {
			pt.Category = strings.SplitN(pt.ID, ".", 2)[0]
		}

		if err := r.Register(&pt); err != nil {
			return fmt.Errorf("failed to register %s: %w", pt.ID, err)
		}
		return nil
	})
}

// generateIDFromPath creates a prompt ID from the file path
// e.g., "stock/analysis.json" -> "stock.analysis"
func generateIDFromPath(path string, root string) string {
	rel := strings.TrimPrefix(path, root)
	rel = strings.TrimPrefix(rel, "/")
	rel = strings.TrimSuffix(rel, ".json")
	return strings.ReplaceAll(rel, "/", ".")
}

// RenderUserPrompt executes the user prompt template with the given context
func RenderUserPrompt(pt *PromptTemplate, ctx *PromptExecutionContext) (string, error) {
	if pt.UserPromptTmpl == "" {
		return "", nil
	}

	tmpl, err := template.New(pt.ID).Option("missingkey=error").Parse(pt.UserPromptTmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, ctx.Variables); err != nil {
		return "", fmt.Errorf("failed to execute template: %w", err)
	}

	return buf.String(), nil
}
