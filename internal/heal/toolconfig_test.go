package heal

import (
	"os"
	"path/filepath"
	"testing"
)

func TestResolveProjectConfig(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "pkg", "sub")
	if err := os.MkdirAll(sub, 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	pyproject := filepath.Join(root, "pyproject.toml")
	content := "[tool.ruff]\nline-length = 100\n\n[tool.ruff.lint]\nselect = [\"E\"]\n"
	if err := os.WriteFile(pyproject, []byte(content), 0644); err != nil {
		t.Fatalf("write pyproject: %v", err)
	}

	tests := []struct {
		name     string
		file     string
		tool     string
		wantPath string
		wantTool bool
	}{
		{
			name:     "found from nested dir",
			file:     filepath.Join(sub, "mod.py"),
			tool:     "ruff",
			wantPath: pyproject,
			wantTool: true,
		},
		{
			name:     "found but tool not configured",
			file:     filepath.Join(root, "mod.py"),
			tool:     "black",
			wantPath: pyproject,
			wantTool: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ResolveProjectConfig(tt.file, tt.tool)
			if got.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", got.Path, tt.wantPath)
			}
			if got.HasToolSection != tt.wantTool {
				t.Errorf("HasToolSection = %v, want %v", got.HasToolSection, tt.wantTool)
			}
		})
	}
}

func TestResolveProjectConfig_NotFound(t *testing.T) {
	dir := t.TempDir()
	got := ResolveProjectConfig(filepath.Join(dir, "mod.py"), "ruff")
	if got.Path != "" || got.HasToolSection {
		t.Errorf("ResolveProjectConfig() = %+v, want zero value", got)
	}
}
