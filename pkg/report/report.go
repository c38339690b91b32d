// Package report turns a finished run into a document: Markdown for people,
// JSON and YAML for machines.
package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/relay/pkg/agents"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/workflows"
)

// Article is a source listed in the report.
type Article struct {
	Title   string `json:"title" yaml:"title"`
	Source  string `json:"source,omitempty" yaml:"source,omitempty"`
	Date    string `json:"date,omitempty" yaml:"date,omitempty"`
	URL     string `json:"url,omitempty" yaml:"url,omitempty"`
	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Report is the presentable result of a run.
type Report struct {
	RunID       string         `json:"run_id" yaml:"run_id"`
	System      string         `json:"system" yaml:"system"`
	Task        string         `json:"task" yaml:"task"`
	Content     string         `json:"content" yaml:"content"`
	Notes       string         `json:"research_notes,omitempty" yaml:"research_notes,omitempty"`
	Analysis    string         `json:"analysis,omitempty" yaml:"analysis,omitempty"`
	Topics      []string       `json:"trending_topics,omitempty" yaml:"trending_topics,omitempty"`
	Articles    []Article      `json:"articles,omitempty" yaml:"articles,omitempty"`
	Sentiment   map[string]any `json:"sentiment,omitempty" yaml:"sentiment,omitempty"`
	Status      string         `json:"status" yaml:"status"`
	Reason      string         `json:"reason,omitempty" yaml:"reason,omitempty"`
	Success     bool           `json:"success" yaml:"success"`
	Degraded    bool           `json:"degraded" yaml:"degraded"`
	Path        []string       `json:"path" yaml:"path"`
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
}

// failure prefixes written by stages that absorbed a collaborator error.
var failureMarkers = []string{"Error in research:", "Analysis error:", "Error generating report:", "Error:"}

// FromOutcome builds a report from the final state of a run of the named system.
func FromOutcome(system string, out domain.Outcome) Report {
	s := out.State
	r := Report{
		RunID:       out.RunID,
		System:      system,
		Task:        s.String(workflows.TaskField(system)),
		Content:     s.String(workflows.ResultField(system)),
		Notes:       s.String(agents.FieldNotes),
		Analysis:    s.String(agents.FieldAnalysis),
		Topics:      s.Strings(agents.FieldTopics),
		Status:      s.Status(),
		Reason:      out.Reason,
		Success:     out.Done(),
		GeneratedAt: out.FinishedAt,
	}
	if m := s.Map(agents.FieldSentiment); len(m) > 0 {
		r.Sentiment = m
	}
	for _, id := range out.Path {
		r.Path = append(r.Path, string(id))
	}
	for _, item := range s.List(agents.FieldArticles) {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		r.Articles = append(r.Articles, Article{
			Title:   str(m, "title"),
			Source:  str(m, "source"),
			Date:    str(m, "date"),
			URL:     str(m, "url"),
			Summary: str(m, "summary"),
		})
	}
	r.Degraded = degraded(r, out.Violations)
	return r
}

func degraded(r Report, violations int) bool {
	if !r.Success || violations > 0 {
		return true
	}
	if strings.Contains(r.Status, "error") || strings.Contains(r.Status, "skipped") {
		return true
	}
	for _, text := range []string{r.Notes, r.Analysis, r.Content} {
		for _, marker := range failureMarkers {
			if strings.Contains(text, marker) {
				return true
			}
		}
	}
	return false
}

func str(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

// Filename suggests a download name such as research_report_20251101_093000.md.
func Filename(t time.Time) string {
	return "research_report_" + t.Format("20060102_150405") + ".md"
}

// Markdown renders the report. The single-agent system only has a result;
// the multi-agent report adds notes, analysis and sources as sections.
func (r Report) Markdown() string {
	var b strings.Builder

	if r.System == workflows.Single {
		b.WriteString("## Results\n\n")
		b.WriteString(orPlaceholder(r.Content, "No result"))
		b.WriteString("\n")
		return b.String()
	}

	b.WriteString(orPlaceholder(r.Content, "No report generated"))
	b.WriteString("\n\n---\n\n### Research Notes\n\n")
	b.WriteString(orPlaceholder(r.Notes, "_No research notes available_"))
	b.WriteString("\n\n### Analysis Results\n\n")
	b.WriteString(orPlaceholder(r.Analysis, "_No analysis available_"))
	b.WriteString("\n")

	if len(r.Topics) > 0 {
		b.WriteString("\n#### Trending Topics\n\n")
		for i, t := range r.Topics {
			fmt.Fprintf(&b, "%d. %s\n", i+1, t)
		}
	}

	if len(r.Sentiment) > 0 {
		fmt.Fprintf(&b, "\n#### Market Sentiment\n\n%v (score %v/100, confidence %v%%)\n",
			r.Sentiment["sentiment"], r.Sentiment["score"], r.Sentiment["confidence"])
	}

	b.WriteString("\n### Source Articles\n\n")
	if len(r.Articles) == 0 {
		b.WriteString("_No source articles available_\n")
	}
	for _, a := range r.Articles {
		fmt.Fprintf(&b, "- **%s**\n", orPlaceholder(a.Title, "Untitled"))
		fmt.Fprintf(&b, "  - Source: %s\n", orPlaceholder(a.Source, "Unknown"))
		fmt.Fprintf(&b, "  - Date: %s\n", orPlaceholder(a.Date, "N/A"))
		fmt.Fprintf(&b, "  - URL: %s\n", orPlaceholder(a.URL, "N/A"))
		fmt.Fprintf(&b, "  - Summary: %s\n", orPlaceholder(a.Summary, "No summary available"))
	}
	return b.String()
}

func orPlaceholder(s, placeholder string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

// JSON encodes the report with indentation.
func (r Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// YAML encodes the report.
func (r Report) YAML() ([]byte, error) {
	return yaml.Marshal(r)
}

// Summary returns the first n characters of the content, for history listings.
func (r Report) Summary(n int) string {
	content := strings.TrimSpace(r.Content)
	if len([]rune(content)) <= n {
		return content
	}
	return string([]rune(content)[:n])
}
