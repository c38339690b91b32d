package agents

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
)

// Writer drafts the final report from the notes and the analysis.
// With Edit set it hands the draft to the editor.
type Writer struct {
	Generator ports.Generator
	Edit      bool
	Logger    *slog.Logger
}

func (w *Writer) Writes() []string {
	return []string{FieldReport, FieldMessages, FieldNext, FieldStatus}
}

func (w *Writer) Run(ctx context.Context, s domain.State) domain.Update {
	logger := nopLogger(w.Logger).With("agent", "Writer")
	logger.Info("Writing report")

	var sentiment string
	if m := s.Map(FieldSentiment); len(m) > 0 {
		sentiment = fmt.Sprintf("\nMARKET SENTIMENT:\n%v (score %v/100)\n", m["sentiment"], m["score"])
	}

	prompt := fmt.Sprintf(`Create an executive summary report.

RESEARCH:
%s

ANALYSIS:
%s
%s
Format as:

%s

## Executive Summary
[2-3 sentences]

## Key Developments
[3-4 bullet points]

## Strategic Insights
[2-3 insights]

## Recommendations
[2-3 actionable recommendations]

Keep it concise and professional.`, s.String(FieldNotes), s.String(FieldAnalysis), sentiment, ReportTitle)

	report, err := w.Generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("Report generation failed", "error", err)
		u := degrade(s, DecideEnd, "report error: "+err.Error())
		u[FieldReport] = "Error generating report: " + err.Error()
		return u
	}

	report = strings.TrimSpace(report)
	if !strings.HasPrefix(report, ReportTitle) {
		report = ReportTitle + "\n\n" + report
	}

	next, status := DecideEnd, "complete"
	if w.Edit {
		next, status = DecideEditor, "draft_complete"
	}

	logger.Info("Report complete", "length", len(report))
	return domain.Update{
		FieldReport:   report,
		FieldMessages: message("Writer", "Report generated"),
		FieldNext:     next,
		FieldStatus:   status,
	}
}

// Editor polishes the drafted report. On failure the draft is kept.
type Editor struct {
	Generator ports.Generator
	Logger    *slog.Logger
}

func (e *Editor) Writes() []string {
	return []string{FieldReport, FieldMessages, FieldNext, FieldStatus}
}

func (e *Editor) Run(ctx context.Context, s domain.State) domain.Update {
	logger := nopLogger(e.Logger).With("agent", "Editor")

	draft := s.String(FieldReport)
	if strings.TrimSpace(draft) == "" {
		logger.Warn("No draft to edit")
		return degrade(s, DecideEnd, "edit skipped: empty draft")
	}

	prompt := fmt.Sprintf(`Review and improve this report for clarity and impact:

%s

Improve:
1. Clarity and conciseness
2. Professional tone
3. Actionable insights

Return the improved version.`, draft)

	edited, err := e.Generator.Generate(ctx, prompt)
	if err != nil {
		logger.Error("Editing failed", "error", err)
		return degrade(s, DecideEnd, "edit error: "+err.Error())
	}

	logger.Info("Editing complete")
	return domain.Update{
		FieldReport:   strings.TrimSpace(edited),
		FieldMessages: message("Editor", "Report edited"),
		FieldNext:     DecideEnd,
		FieldStatus:   "complete",
	}
}
