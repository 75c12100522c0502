package heal

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ToolStatus is the outcome of one external tool invocation.
type ToolStatus int

const (
	// ToolOK means the tool exited zero and produced output on stdout.
	ToolOK ToolStatus = iota
	// ToolFailed means the tool ran but exited non-zero or timed out.
	ToolFailed
	// ToolMissing means the binary could not be located or executed.
	ToolMissing
)

// ToolResult is the explicit three-way result of running the external
// formatter once.
type ToolResult struct {
	Status ToolStatus
	// Output is the formatted text on stdout. Valid only for ToolOK.
	Output string
	// Detail carries stderr diagnostics or the reason the run failed.
	Detail string
}

// Formatter invokes an external format/lint binary over stdin/stdout.
//
// The binary is called twice per file: once in format mode and once in
// fix mode. The logical file path is passed via --stdin-filename purely
// as a hint for the tool's own config resolution; the tool never touches
// the file on disk.
type Formatter struct {
	// Command is the binary name, resolved through PATH.
	Command string
	// Timeout bounds each invocation. A hung formatter counts as a
	// failed run, not a stuck pipeline.
	Timeout time.Duration
}

// DefaultFormatter returns the stock ruff-based formatter configuration.
func DefaultFormatter() *Formatter {
	return &Formatter{
		Command: "ruff",
		Timeout: 10 * time.Second,
	}
}

// Available reports whether the formatter binary can be found in PATH.
func (f *Formatter) Available() bool {
	_, err := exec.LookPath(f.Command)
	return err == nil
}

// FormatAndLint runs the format pass and then the fix pass over text.
// Each pass falls back to its own input on failure, so a formatter
// breakage never loses the structurally-rewritten text. When the binary
// is missing the input passes through untouched.
//
// The returned warnings describe degraded passes; an empty slice means
// both passes succeeded (or were cleanly skipped).
func (f *Formatter) FormatAndLint(ctx context.Context, text, path string) (string, []string) {
	if !f.Available() {
		return text, []string{fmt.Sprintf("formatter %q not found in PATH, skipping format stage", f.Command)}
	}

	var warnings []string
	current := text

	res := f.run(ctx, current, "format", "--stdin-filename", path, "-")
	switch res.Status {
	case ToolOK:
		current = res.Output
	case ToolMissing:
		return text, []string{fmt.Sprintf("formatter %q vanished mid-run: %s", f.Command, res.Detail)}
	default:
		warnings = append(warnings, fmt.Sprintf("%s format failed: %s", f.Command, res.Detail))
	}

	res = f.run(ctx, current, "check", "--fix", "--stdin-filename", path, "-")
	switch res.Status {
	case ToolOK:
		current = res.Output
	case ToolMissing:
		warnings = append(warnings, fmt.Sprintf("formatter %q vanished mid-run: %s", f.Command, res.Detail))
	default:
		warnings = append(warnings, fmt.Sprintf("%s check --fix failed: %s", f.Command, res.Detail))
	}

	return current, warnings
}

// run executes one invocation, piping text to stdin and capturing stdout.
func (f *Formatter) run(ctx context.Context, text string, args ...string) ToolResult {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, f.Command, args...)
	cmd.Stdin = strings.NewReader(text)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return ToolResult{Status: ToolOK, Output: stdout.String()}
	}

	if ctx.Err() == context.DeadlineExceeded {
		return ToolResult{Status: ToolFailed, Detail: fmt.Sprintf("timed out after %s", timeout)}
	}
	if ctx.Err() != nil {
		// The caller's context expired or was cancelled; the binary is
		// fine, the run just never got to finish.
		return ToolResult{Status: ToolFailed, Detail: fmt.Sprintf("run cancelled: %v", ctx.Err())}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = exitErr.String()
		}
		return ToolResult{Status: ToolFailed, Detail: detail}
	}

	if errors.Is(err, exec.ErrNotFound) {
		return ToolResult{Status: ToolMissing, Detail: err.Error()}
	}
	return ToolResult{Status: ToolMissing, Detail: err.Error()}
}
