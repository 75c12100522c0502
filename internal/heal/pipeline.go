package heal

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Stage identifies where in the pipeline a run failed.
type Stage string

const (
	// StageRead is the initial one-shot file read.
	StageRead Stage = "read"
	// StageRewrite is the structural rewrite (parse) stage.
	StageRewrite Stage = "rewrite"
	// StageWrite is the final write-back to disk.
	StageWrite Stage = "write"
)

// Result captures the outcome of a single pipeline run. It lives only
// for the duration of the write-back and notification steps; nothing
// here is persisted except through the history store.
type Result struct {
	// Path is the file the run processed.
	Path string
	// Original is the content as read at the start of the run.
	Original string
	// Final is the content after the last stage that ran.
	Final string
	// Succeeded is true iff the content parsed in the rewrite stage and
	// was written back. Formatter degradation alone does not clear it.
	Succeeded bool
	// FailedStage names the stage that aborted the run, "" on success.
	FailedStage Stage
	// Err is the error that aborted the run, nil on success.
	Err error
	// Warnings lists non-fatal degradations (formatter failures).
	Warnings []string
	// Duration is the wall time of the whole run.
	Duration time.Duration
}

// Pipeline runs a file through syntax patching, structural rewriting,
// and external formatting, then writes the result back in place.
type Pipeline struct {
	formatter *Formatter
}

// NewPipeline creates a pipeline around the given formatter. A nil
// formatter gets the default ruff configuration.
func NewPipeline(formatter *Formatter) *Pipeline {
	if formatter == nil {
		formatter = DefaultFormatter()
	}
	return &Pipeline{formatter: formatter}
}

// Formatter exposes the configured formatter, mainly for availability
// reporting at startup.
func (p *Pipeline) Formatter() *Formatter {
	return p.formatter
}

// Run heals one file. The file is read exactly once at the start; stages
// run strictly in order over the in-memory text. If the rewrite stage
// cannot parse the input, the run aborts and the on-disk file is left
// byte-for-byte unchanged.
func (p *Pipeline) Run(ctx context.Context, path string) Result {
	start := time.Now()
	res := Result{Path: path}

	raw, err := os.ReadFile(path)
	if err != nil {
		res.FailedStage = StageRead
		res.Err = fmt.Errorf("read %s: %w", path, err)
		res.Duration = time.Since(start)
		return res
	}
	res.Original = string(raw)

	patched := PatchSyntax(res.Original)

	rewritten, err := RewriteStructure(patched)
	if err != nil {
		res.FailedStage = StageRewrite
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	final, warnings := p.formatter.FormatAndLint(ctx, rewritten, path)
	res.Warnings = warnings
	res.Final = final

	if err := writeInPlace(path, []byte(final)); err != nil {
		res.FailedStage = StageWrite
		res.Err = err
		res.Duration = time.Since(start)
		return res
	}

	res.Succeeded = true
	res.Duration = time.Since(start)
	return res
}

// writeInPlace replaces the file content via a temp file and rename so a
// crash mid-write cannot leave a truncated file behind.
func writeInPlace(path string, content []byte) error {
	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
