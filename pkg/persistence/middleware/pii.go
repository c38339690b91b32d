package middleware

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aretw0/relay/pkg/ports"
)

// Mask replaces every redacted match.
const Mask = "***"

type piiMiddleware struct {
	next     ports.HistoryStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks text matching any of the patterns in the task,
// summary, report and diagnostic of records before they are stored.
// Records already in memory are not touched.
func NewPIIMiddleware(patternStrings []string) (Middleware, error) {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redaction pattern %q: %w", p, err)
		}
		patterns[i] = re
	}
	return func(next ports.HistoryStore) ports.HistoryStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}, nil
}

func (m *piiMiddleware) Save(ctx context.Context, rec ports.RunRecord) error {
	rec.Task = m.mask(rec.Task)
	rec.Summary = m.mask(rec.Summary)
	rec.Report = m.mask(rec.Report)
	rec.Diagnostic = m.mask(rec.Diagnostic)
	return m.next.Save(ctx, rec)
}

func (m *piiMiddleware) Load(ctx context.Context, id string) (ports.RunRecord, error) {
	return m.next.Load(ctx, id)
}

func (m *piiMiddleware) List(ctx context.Context, limit int) ([]ports.RunRecord, error) {
	return m.next.List(ctx, limit)
}

func (m *piiMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, Mask)
	}
	return s
}
