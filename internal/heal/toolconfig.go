package heal

import (
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// ProjectConfig describes the formatter configuration the external tool
// will resolve for a file via the --stdin-filename hint.
type ProjectConfig struct {
	// Path is the pyproject.toml that governs the file, or "" when no
	// project file was found.
	Path string
	// HasToolSection is true when the project file carries a
	// [tool.<command>] table for the configured formatter.
	HasToolSection bool
}

// ResolveProjectConfig walks up from the file's directory looking for a
// pyproject.toml and reports whether it configures the given tool.
//
// The result is informational only: the external tool does its own
// resolution from the hint path, this just lets operators see what it
// will find.
func ResolveProjectConfig(path, tool string) ProjectConfig {
	dir := filepath.Dir(path)
	for {
		candidate := filepath.Join(dir, "pyproject.toml")
		if _, err := os.Stat(candidate); err == nil {
			return ProjectConfig{
				Path:           candidate,
				HasToolSection: hasToolTable(candidate, tool),
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ProjectConfig{}
		}
		dir = parent
	}
}

// hasToolTable decodes the project file and checks for [tool.<name>].
func hasToolTable(path, tool string) bool {
	var doc struct {
		Tool map[string]toml.Primitive `toml:"tool"`
	}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return false
	}
	_, ok := doc.Tool[tool]
	return ok
}
