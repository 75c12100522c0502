package heal

import (
	"fmt"

	"github.com/pymend/pymend/internal/pysrc"
)

// Parameter names accepted as an existing receiver; definitions starting
// with one of these are left alone.
var receiverNames = map[string]bool{
	"self": true,
	"cls":  true,
}

// structuralRewriter applies both tree rewrites in one walk.
type structuralRewriter struct {
	mod *pysrc.Module
}

// VisitCall renames the deprecated logger.warn call to logger.warning.
// Only the bare identifier receiver "logger" qualifies; warnings.warn and
// attribute chains like self.log.warn stay untouched.
func (r *structuralRewriter) VisitCall(c *pysrc.CallExpr) {
	if c.Receiver == "logger" && c.Method == "warn" {
		r.mod.Replace(c.Line, c.MethodStart, c.MethodEnd, "warning")
	}
}

// VisitFuncDef prepends a self parameter to definitions whose first
// positional parameter is present but is not an accepted receiver name.
// Definitions with an empty parameter list, or whose parameters start
// with *args/**kwargs, are skipped.
func (r *structuralRewriter) VisitFuncDef(d *pysrc.FuncDef) {
	if len(d.Params) == 0 || d.FirstParam == "" {
		return
	}
	if receiverNames[d.FirstParam] {
		return
	}
	r.mod.Insert(d.Line, d.ParamsStart, "self, ")
}

// RewriteStructure parses text and applies the structural rewrites over
// the resulting tree, re-serializing back to source. A parse failure is
// returned as-is; callers treat it as an abort for the whole file.
func RewriteStructure(text string) (string, error) {
	mod, err := pysrc.Parse(text)
	if err != nil {
		return "", fmt.Errorf("structural rewrite: %w", err)
	}
	mod.Walk(&structuralRewriter{mod: mod})
	return mod.Render(), nil
}
