package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/relay/internal/presentation/graph"
	"github.com/aretw0/relay/internal/presentation/tui"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/report"
	"github.com/aretw0/relay/pkg/session"
)

// Output formats of the run command.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatYAML     = "yaml"
)

// ErrRunFailed is returned when a run ends without reaching END.
var ErrRunFailed = errors.New("run failed")

// RunOptions contains all the configuration for the run command.
type RunOptions struct {
	System string
	Task   string
	Format string
	// Output is a file or directory to save the report to. Empty means stdout only.
	Output string
	// Graph appends a Mermaid chart of the path taken.
	Graph bool
	Quiet bool
}

// Printer writes run results to the terminal.
type Printer struct {
	Out    io.Writer
	Err    io.Writer
	Render tui.Renderer
}

// Execute runs one task, prints the report and optionally saves it.
// A run interrupted by the user is not an error.
func Execute(ctx context.Context, app *App, opts RunOptions, p Printer) error {
	if p.Render == nil {
		p.Render = tui.Plain
	}
	runCtx := ctx
	if app.Config.Runtime.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, app.Config.Runtime.Timeout)
		defer cancel()
	}

	res, err := app.Manager.Run(runCtx, opts.System, opts.Task)
	if err != nil {
		return err
	}

	body, err := Format(res.Report, opts.Format)
	if err != nil {
		return err
	}
	if opts.Format == "" || opts.Format == FormatMarkdown {
		if opts.Graph {
			body += "\n\n## Path\n\n```mermaid\n" + overlay(app, res) + "```\n"
		}
		if rendered, err := p.Render(body); err == nil {
			body = rendered
		}
	}
	fmt.Fprintln(p.Out, body)

	if opts.Output != "" {
		path, err := Save(res.Report, opts.Output, opts.Format)
		if err != nil {
			return err
		}
		if !opts.Quiet {
			fmt.Fprintf(p.Err, ">>> Report saved to %s\n", path)
		}
	}
	if !opts.Quiet {
		fmt.Fprintln(p.Err, tui.Summary(res.Record, res.Report.Degraded))
	}

	return handleOutcome(ctx, res.Outcome)
}

func overlay(app *App, res session.Result) string {
	g, err := app.Manager.Graph(res.Record.System)
	if err != nil {
		return ""
	}
	ov := &graph.Overlay{Visited: res.Record.Path}
	if !res.Outcome.Done() && len(res.Record.Path) > 0 {
		ov.Current = res.Record.Path[len(res.Record.Path)-1]
	}
	return graph.GenerateMermaid(g.Describe(), ov)
}

func handleOutcome(ctx context.Context, out domain.Outcome) error {
	if out.Done() {
		return nil
	}
	if errors.Is(out.Err, domain.ErrCancelled) {
		if Interrupted(ctx) != nil {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrRunFailed, out.Reason)
}

// Format serializes a report as markdown, json or yaml.
func Format(r report.Report, format string) (string, error) {
	switch strings.ToLower(format) {
	case "", FormatMarkdown:
		return r.Markdown(), nil
	case FormatJSON:
		b, err := r.JSON()
		return string(b), err
	case FormatYAML:
		b, err := r.YAML()
		return string(b), err
	default:
		return "", fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatMarkdown, FormatJSON, FormatYAML)
	}
}

// Save writes the report to dest. When dest is a directory the file gets the
// standard report name with an extension matching format.
func Save(r report.Report, dest, format string) (string, error) {
	body, err := Format(r, format)
	if err != nil {
		return "", err
	}
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		name := report.Filename(timeOr(r.GeneratedAt))
		switch strings.ToLower(format) {
		case FormatJSON:
			name = strings.TrimSuffix(name, ".md") + ".json"
		case FormatYAML:
			name = strings.TrimSuffix(name, ".md") + ".yaml"
		}
		dest = filepath.Join(dest, name)
	}
	if err := os.WriteFile(dest, []byte(body), 0o644); err != nil {
		return "", fmt.Errorf("failed to save report: %w", err)
	}
	return dest, nil
}

func timeOr(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
