// Package docs re-derives documentation artifacts for healed files.
//
// The refresher runs once per successful heal and is given the final
// on-disk content. It extracts a structural outline and, when a docs
// directory is configured, writes it as a YAML manifest next to the
// project. An optional summarizer can enrich the manifest with a prose
// summary; its absence never affects healing.
package docs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pymend/pymend/internal/pysrc"
)

// FunctionDoc is one function entry in an outline.
type FunctionDoc struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params,omitempty"`
}

// Outline is the structural documentation manifest for one source file.
type Outline struct {
	Path        string        `yaml:"path"`
	GeneratedAt time.Time     `yaml:"generated_at"`
	Docstring   string        `yaml:"docstring,omitempty"`
	Classes     []string      `yaml:"classes,omitempty"`
	Functions   []FunctionDoc `yaml:"functions,omitempty"`
	Summary     string        `yaml:"summary,omitempty"`
}

// Summarizer produces a prose summary for a source file.
type Summarizer interface {
	Summarize(ctx context.Context, path, content string) (string, error)
}

// Refresher derives documentation for healed files.
type Refresher struct {
	// OutputDir receives <name>.outline.yaml manifests. Empty disables
	// manifest writing; the refresher still reads the file so the
	// caller contract ("given the final on-disk content") holds.
	OutputDir string
	// Summarizer optionally enriches manifests. May be nil.
	Summarizer Summarizer
}

// Run refreshes documentation for one healed file. It reads the file
// from disk; the caller guarantees the heal already wrote back.
func (r *Refresher) Run(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read healed file %s: %w", path, err)
	}
	content := string(raw)

	if r.OutputDir == "" {
		return nil
	}

	outline := buildOutline(path, content)

	if r.Summarizer != nil {
		summary, err := r.Summarizer.Summarize(ctx, path, content)
		if err != nil {
			// Summaries are best-effort; the outline still gets written.
			outline.Summary = ""
		} else {
			outline.Summary = strings.TrimSpace(summary)
		}
	}

	return r.writeManifest(path, outline)
}

// buildOutline extracts classes and function signatures. Healed content
// parses by construction; if it somehow doesn't, the outline simply
// carries the class scan only.
func buildOutline(path, content string) Outline {
	outline := Outline{
		Path:        path,
		GeneratedAt: time.Now().UTC(),
		Docstring:   moduleDocstring(content),
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimLeft(line, " \t")
		if name, ok := classHeaderName(trimmed); ok {
			outline.Classes = append(outline.Classes, name)
		}
	}

	mod, err := pysrc.Parse(content)
	if err != nil {
		return outline
	}
	for _, n := range mod.Nodes() {
		if def, ok := n.(*pysrc.FuncDef); ok {
			outline.Functions = append(outline.Functions, FunctionDoc{
				Name:   def.Name,
				Params: def.Params,
			})
		}
	}
	return outline
}

// moduleDocstring returns the module-level docstring, if the file opens
// with one. Comments and blank lines may precede it; any other statement
// means there is no module docstring.
func moduleDocstring(content string) string {
	rest := content
	for {
		line, tail, found := strings.Cut(rest, "\n")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			if !found {
				return ""
			}
			rest = tail
			continue
		}

		var quote string
		switch {
		case strings.HasPrefix(trimmed, `"""`):
			quote = `"""`
		case strings.HasPrefix(trimmed, "'''"):
			quote = "'''"
		default:
			return ""
		}

		start := strings.Index(rest, quote) + len(quote)
		end := strings.Index(rest[start:], quote)
		if end < 0 {
			return ""
		}
		return strings.TrimSpace(rest[start : start+end])
	}
}

// classHeaderName extracts the class name from a "class Foo(...):" line.
func classHeaderName(trimmed string) (string, bool) {
	if !strings.HasPrefix(trimmed, "class ") {
		return "", false
	}
	rest := trimmed[len("class "):]
	end := strings.IndexAny(rest, "(:")
	if end < 0 {
		return "", false
	}
	name := strings.TrimSpace(rest[:end])
	if name == "" {
		return "", false
	}
	return name, true
}

// writeManifest serializes the outline to <base>.outline.yaml.
func (r *Refresher) writeManifest(srcPath string, outline Outline) error {
	if err := os.MkdirAll(r.OutputDir, 0755); err != nil {
		return fmt.Errorf("create docs directory: %w", err)
	}

	data, err := yaml.Marshal(outline)
	if err != nil {
		return fmt.Errorf("marshal outline: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(srcPath), filepath.Ext(srcPath))
	dest := filepath.Join(r.OutputDir, base+".outline.yaml")
	if err := os.WriteFile(dest, data, 0644); err != nil {
		return fmt.Errorf("write outline %s: %w", dest, err)
	}
	return nil
}
