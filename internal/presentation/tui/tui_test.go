package tui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/relay/pkg/ports"
)

func TestSummary(t *testing.T) {
	rec := ports.RunRecord{
		ID:         "run-1",
		System:     "multi",
		Success:    true,
		Diagnostic: "complete",
		Path:       []string{"research", "write"},
		Steps:      2,
		Duration:   1500 * time.Millisecond,
	}

	out := Summary(rec, false)
	assert.Contains(t, out, "run-1")
	assert.Contains(t, out, "research → write")
	assert.Contains(t, out, "OK")

	assert.Contains(t, Summary(rec, true), "DEGRADED")

	rec.Success = false
	rec.Reason = "cancelled"
	failed := Summary(rec, false)
	assert.Contains(t, failed, "FAILED")
	assert.Contains(t, failed, "cancelled")
}

func TestHistoryTable(t *testing.T) {
	assert.Contains(t, HistoryTable(nil), "no runs recorded")

	out := HistoryTable([]ports.RunRecord{
		{System: "single", Task: "Summarize AI news", Success: true, Summary: "short"},
		{System: "multi", Task: "Weekly roundup", Success: false},
	})
	assert.Contains(t, out, "Summarize AI news")
	assert.Contains(t, out, "fail")
	assert.Contains(t, out, "short")
}

func TestPlainRendererAndBanner(t *testing.T) {
	out, err := Plain("# Title")
	assert.NoError(t, err)
	assert.Equal(t, "# Title", out)

	var buf bytes.Buffer
	PrintBanner(&buf)
	assert.Contains(t, buf.String(), "|___/")

	assert.False(t, IsTerminal(nil))
}
