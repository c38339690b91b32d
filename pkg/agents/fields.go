package agents

import (
	"io"
	"log/slog"

	"github.com/aretw0/relay/pkg/domain"
)

// State fields shared by the multi-agent stages.
const (
	FieldMessages  = "messages"
	FieldTask      = "current_task"
	FieldNotes     = "research_notes"
	FieldTopics    = "trending_topics"
	FieldArticles  = "articles"
	FieldAnalysis  = "analysis_results"
	FieldPatterns  = "patterns"
	FieldSentiment = "sentiment"
	FieldReport    = "final_report"
	FieldNext      = "next_agent"
	FieldStatus    = "status"
)

// State fields of the single-agent stage.
const (
	FieldSingleTask   = "task"
	FieldSingleResult = "result"
	FieldSingleNext   = "next"
)

// Routing decisions written to the routing field.
const (
	DecideCollector = "collector"
	DecideAnalyst   = "analyst"
	DecideWriter    = "writer"
	DecideSentiment = "sentiment"
	DecideEditor    = "editor"
	DecideEnd       = "END"
)

// ReportTitle heads every generated report.
const ReportTitle = "# Weekly Tech Intelligence Report"

func message(agent, content string) map[string]any {
	return map[string]any{"role": "assistant", "agent": agent, "content": content}
}

func nopLogger(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func degrade(s domain.State, decision, diagnostic string) domain.Update {
	return s.Degrade(domain.StageID(decision), diagnostic)
}
