package docs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func writeHealed(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestRefresher_WritesOutline(t *testing.T) {
	srcDir := t.TempDir()
	docsDir := t.TempDir()
	path := writeHealed(t, srcDir, "service.py",
		"class Service:\n    def handle(self, request):\n        pass\n\ndef helper(x):\n    return x\n")

	r := &Refresher{OutputDir: docsDir}
	if err := r.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(docsDir, "service.outline.yaml"))
	if err != nil {
		t.Fatalf("manifest not written: %v", err)
	}

	var outline Outline
	if err := yaml.Unmarshal(data, &outline); err != nil {
		t.Fatalf("manifest not valid YAML: %v", err)
	}

	if len(outline.Classes) != 1 || outline.Classes[0] != "Service" {
		t.Errorf("Classes = %v, want [Service]", outline.Classes)
	}
	var names []string
	for _, fn := range outline.Functions {
		names = append(names, fn.Name)
	}
	if len(names) != 2 || names[0] != "handle" || names[1] != "helper" {
		t.Errorf("Functions = %v, want [handle helper]", names)
	}
}

func TestModuleDocstring(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"leading docstring", "\"\"\"Billing helpers.\"\"\"\nx = 1\n", "Billing helpers."},
		{"after comments", "# -*- coding: utf-8 -*-\n\n'''Legacy.'''\n", "Legacy."},
		{"multi-line", "\"\"\"Top.\n\nMore detail.\n\"\"\"\n", "Top.\n\nMore detail."},
		{"code first", "x = 1\n\"\"\"not a docstring\"\"\"\n", ""},
		{"no docstring", "def f():\n    pass\n", ""},
		{"unterminated", "\"\"\"oops\n", ""},
		{"comments only", "# nothing here\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := moduleDocstring(tt.content); got != tt.want {
				t.Errorf("moduleDocstring() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRefresher_NoOutputDirStillReads(t *testing.T) {
	srcDir := t.TempDir()
	path := writeHealed(t, srcDir, "mod.py", "x = 1\n")

	r := &Refresher{}
	if err := r.Run(context.Background(), path); err != nil {
		t.Errorf("Run() error = %v, want nil", err)
	}
}

func TestRefresher_MissingFile(t *testing.T) {
	r := &Refresher{}
	err := r.Run(context.Background(), filepath.Join(t.TempDir(), "gone.py"))
	if err == nil {
		t.Error("Run() on missing file returned nil error")
	}
}

// stubSummarizer returns a canned summary or error.
type stubSummarizer struct {
	summary string
	err     error
}

func (s *stubSummarizer) Summarize(ctx context.Context, path, content string) (string, error) {
	return s.summary, s.err
}

func TestRefresher_SummaryEmbedded(t *testing.T) {
	srcDir := t.TempDir()
	docsDir := t.TempDir()
	path := writeHealed(t, srcDir, "mod.py", "def f(x):\n    return x\n")

	r := &Refresher{
		OutputDir:  docsDir,
		Summarizer: &stubSummarizer{summary: "  A helper module.  "},
	}
	if err := r.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, _ := os.ReadFile(filepath.Join(docsDir, "mod.outline.yaml"))
	if !strings.Contains(string(data), "A helper module.") {
		t.Errorf("manifest missing trimmed summary: %s", data)
	}
}

func TestRefresher_SummaryFailureNonFatal(t *testing.T) {
	srcDir := t.TempDir()
	docsDir := t.TempDir()
	path := writeHealed(t, srcDir, "mod.py", "def f(x):\n    return x\n")

	r := &Refresher{
		OutputDir:  docsDir,
		Summarizer: &stubSummarizer{err: errors.New("api down")},
	}
	if err := r.Run(context.Background(), path); err != nil {
		t.Fatalf("Run() error = %v, want manifest despite summary failure", err)
	}

	if _, err := os.Stat(filepath.Join(docsDir, "mod.outline.yaml")); err != nil {
		t.Errorf("manifest missing after summary failure: %v", err)
	}
}
