package runtime_test

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/relay/internal/runtime"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testSchema = schema.MustNew("next", "status", map[string]schema.Field{
	"query":    schema.Value(schema.String()),
	"items":    schema.Value(schema.Slice(schema.String())),
	"report":   schema.Value(schema.String()),
	"counter":  schema.Value(schema.Int()),
	"messages": schema.List(schema.String()),
	"next":     schema.Value(schema.String()),
	"status":   schema.Value(schema.String()),
})

func stepFn(fn func(context.Context, domain.State) domain.Update) domain.Step {
	return domain.StepFunc(fn)
}

func mustBuild(t *testing.T, stages map[domain.StageID]domain.Step, routes map[domain.StageID]graph.Router, entry domain.StageID) *graph.Graph {
	t.Helper()
	g, err := graph.Build(testSchema, stages, routes, entry)
	require.NoError(t, err)
	return g
}

func mustState(t *testing.T, g *graph.Graph, values map[string]any) domain.State {
	t.Helper()
	s, err := g.NewState(values)
	require.NoError(t, err)
	return s
}

func fetchSummarizeGraph(t *testing.T, fetch domain.Step) *graph.Graph {
	summarize := stepFn(func(_ context.Context, s domain.State) domain.Update {
		return domain.Update{"report": "report of " + s.Strings("items")[0], "next": "END"}
	})
	return mustBuild(t,
		map[domain.StageID]domain.Step{"fetch": fetch, "summarize": summarize},
		map[domain.StageID]graph.Router{
			"fetch":     graph.Table(map[string]domain.StageID{"summarize": "summarize", "END": domain.End}),
			"summarize": graph.Table(map[string]domain.StageID{"END": domain.End}),
		},
		"fetch",
	)
}

func TestExecutor_LinearPipeline(t *testing.T) {
	fetch := stepFn(func(context.Context, domain.State) domain.Update {
		return domain.Update{"items": []string{"x", "y"}, "next": "summarize"}
	})
	g := fetchSummarizeGraph(t, fetch)

	out := runtime.NewExecutor().Run(context.Background(), g, mustState(t, g, map[string]any{"query": "q"}), 10)

	require.True(t, out.Done(), "reason: %s", out.Reason)
	assert.Equal(t, []string{"x", "y"}, out.State.Strings("items"))
	assert.Equal(t, "report of x", out.State.String("report"))
	assert.Equal(t, []domain.StageID{"fetch", "summarize"}, out.Path)
	assert.Equal(t, 2, out.Steps)
	assert.NotEmpty(t, out.RunID)
}

func TestExecutor_DegradedStageStillCompletes(t *testing.T) {
	var summarized atomic.Bool
	fetch := stepFn(func(_ context.Context, s domain.State) domain.Update {
		return s.Degrade(domain.End, "fetch error: timeout")
	})
	g := mustBuild(t,
		map[domain.StageID]domain.Step{
			"fetch": fetch,
			"summarize": stepFn(func(context.Context, domain.State) domain.Update {
				summarized.Store(true)
				return nil
			}),
		},
		map[domain.StageID]graph.Router{
			"fetch": graph.Table(map[string]domain.StageID{"summarize": "summarize", "END": domain.End}),
		},
		"fetch",
	)

	out := runtime.NewExecutor().Run(context.Background(), g, mustState(t, g, nil), 10)

	assert.True(t, out.Done())
	assert.Equal(t, "fetch error: timeout", out.State.Status())
	assert.False(t, summarized.Load())
	assert.Equal(t, []domain.StageID{"fetch"}, out.Path)
	assert.Empty(t, out.State.List("messages"))
	assert.Empty(t, out.State.String("report"))
}

func loopGraph(t *testing.T, limit int) *graph.Graph {
	loop := stepFn(func(_ context.Context, s domain.State) domain.Update {
		n := s.Int("counter") + 1
		next := "again"
		if n >= limit {
			next = "END"
		}
		return domain.Update{"counter": n, "next": next}
	})
	return mustBuild(t,
		map[domain.StageID]domain.Step{"loop": loop},
		map[domain.StageID]graph.Router{
			"loop": graph.Table(map[string]domain.StageID{"again": "loop", "END": domain.End}),
		},
		"loop",
	)
}

func TestExecutor_BoundedLoop(t *testing.T) {
	g := loopGraph(t, 3)

	out := runtime.NewExecutor().Run(context.Background(), g, mustState(t, g, nil), 10)

	assert.True(t, out.Done())
	assert.Equal(t, 3, out.State.Int("counter"))
	assert.Equal(t, 3, out.Steps)
}

func TestExecutor_StepBudgetExceeded(t *testing.T) {
	g := loopGraph(t, 1000)

	out := runtime.NewExecutor().Run(context.Background(), g, mustState(t, g, nil), 5)

	assert.Equal(t, domain.RunFailed, out.Status)
	assert.Equal(t, "step budget exceeded", out.Reason)
	assert.ErrorIs(t, out.Err, domain.ErrStepBudgetExceeded)
	assert.Equal(t, 5, out.Steps)
	assert.Equal(t, 5, out.State.Int("counter"), "snapshot reflects the last merge")
}

func TestExecutor_DefaultBudget(t *testing.T) {
	g := loopGraph(t, 1000)

	out := runtime.NewExecutor(runtime.WithDefaultMaxSteps(7)).Run(context.Background(), g, mustState(t, g, nil), 0)
	assert.Equal(t, 7, out.Steps)

	out = runtime.NewExecutor().Run(context.Background(), g, mustState(t, g, nil), -1)
	assert.Equal(t, domain.DefaultMaxSteps, out.Steps)
}

func TestExecutor_CancelledMidStage(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	fetch := stepFn(func(context.Context, domain.State) domain.Update {
		return domain.Update{"items": []string{"a"}, "next": "summarize"}
	})
	slow := stepFn(func(context.Context, domain.State) domain.Update {
		cancel()
		<-release // ignores cancellation on purpose
		return domain.Update{"report": "late", "next": "END"}
	})
	g := mustBuild(t,
		map[domain.StageID]domain.Step{"fetch": fetch, "summarize": slow},
		map[domain.StageID]graph.Router{
			"fetch": graph.Table(map[string]domain.StageID{"summarize": "summarize"}),
		},
		"fetch",
	)

	out := runtime.NewExecutor().Run(ctx, g, mustState(t, g, nil), 10)

	assert.Equal(t, domain.RunFailed, out.Status)
	assert.Equal(t, "cancelled", out.Reason)
	assert.ErrorIs(t, out.Err, domain.ErrCancelled)
	assert.ErrorIs(t, out.Err, context.Canceled)
	assert.Equal(t, []string{"a"}, out.State.Strings("items"), "last merged snapshot is kept")
	assert.Empty(t, out.State.String("report"), "late result is discarded")
}

func TestExecutor_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := loopGraph(t, 3)

	out := runtime.NewExecutor().Run(ctx, g, mustState(t, g, nil), 10)

	assert.Equal(t, "cancelled", out.Reason)
	assert.Zero(t, out.Steps)
}

func TestExecutor_ContractViolationIsRecovered(t *testing.T) {
	var violations []domain.StageID
	hooks := domain.LifecycleHooks{
		OnContractViolation: func(_ context.Context, e *domain.ViolationEvent) {
			violations = append(violations, e.Stage)
		},
	}
	bad := stepFn(func(context.Context, domain.State) domain.Update {
		panic("boom")
	})
	g := mustBuild(t,
		map[domain.StageID]domain.Step{"bad": bad, "after": stepFn(func(context.Context, domain.State) domain.Update { return nil })},
		map[domain.StageID]graph.Router{
			"bad": graph.Always("after"),
		},
		"bad",
	)

	out := runtime.NewExecutor(runtime.WithLifecycleHooks(hooks)).Run(context.Background(), g, mustState(t, g, nil), 10)

	assert.True(t, out.Done())
	assert.Equal(t, 1, out.Violations)
	assert.Equal(t, "END", out.State.Route())
	assert.Contains(t, out.State.Status(), "violated contract: boom")
	assert.Equal(t, []domain.StageID{"bad"}, violations)
	assert.Equal(t, []domain.StageID{"bad"}, out.Path, "a fixed edge does not override the synthesized END")
}

func TestExecutor_MissingDecisionEndsRun(t *testing.T) {
	first := stepFn(func(context.Context, domain.State) domain.Update {
		return domain.Update{"next": "second"}
	})
	second := stepFn(func(context.Context, domain.State) domain.Update {
		// Omits the routing field; the stale "second" decision must not loop.
		return domain.Update{"report": "done"}
	})
	g := mustBuild(t,
		map[domain.StageID]domain.Step{"first": first, "second": second},
		map[domain.StageID]graph.Router{
			"first":  graph.Table(map[string]domain.StageID{"second": "second"}),
			"second": graph.Table(map[string]domain.StageID{"second": "second"}),
		},
		"first",
	)

	out := runtime.NewExecutor().Run(context.Background(), g, mustState(t, g, nil), 10)

	assert.True(t, out.Done())
	assert.Equal(t, []domain.StageID{"first", "second"}, out.Path)
}

func TestExecutor_InvalidWritesAreDropped(t *testing.T) {
	step := stepFn(func(context.Context, domain.State) domain.Update {
		return domain.Update{"counter": "not a number", "ghost": 1, "report": "kept", "next": "END"}
	})
	g := mustBuild(t,
		map[domain.StageID]domain.Step{"only": step},
		map[domain.StageID]graph.Router{"only": graph.Table(map[string]domain.StageID{})},
		"only",
	)

	out := runtime.NewExecutor().Run(context.Background(), g, mustState(t, g, nil), 10)

	assert.True(t, out.Done())
	assert.Equal(t, "kept", out.State.String("report"))
	assert.Equal(t, 0, out.State.Int("counter"))
}

func TestExecutor_AccumulatorOfSlicesKeepsItemShape(t *testing.T) {
	batches := schema.MustNew("next", "status", map[string]schema.Field{
		"batches": schema.List(schema.Slice(schema.String())),
		"next":    schema.Value(schema.String()),
		"status":  schema.Value(schema.String()),
	})
	step := stepFn(func(context.Context, domain.State) domain.Update {
		return domain.Update{"batches": []string{"a", "b"}, "next": "wrapped"}
	})
	wrapped := stepFn(func(context.Context, domain.State) domain.Update {
		return domain.Update{"batches": []any{[]string{"c", "d"}}, "next": "END"}
	})
	g, err := graph.Build(batches,
		map[domain.StageID]domain.Step{"bare": step, "wrapped": wrapped},
		map[domain.StageID]graph.Router{
			"bare":    graph.Table(map[string]domain.StageID{"wrapped": "wrapped"}),
			"wrapped": graph.Table(map[string]domain.StageID{"END": domain.End}),
		},
		"bare",
	)
	require.NoError(t, err)
	initial, err := g.NewState(nil)
	require.NoError(t, err)

	out := runtime.NewExecutor().Run(context.Background(), g, initial, 10)

	require.True(t, out.Done(), "reason: %s", out.Reason)
	assert.Equal(t, []any{[]string{"c", "d"}}, out.State.List("batches"))
	assert.NoError(t, batches.Validate(out.State.Snapshot()))
}

func TestExecutor_StageIsolation(t *testing.T) {
	first := stepFn(func(_ context.Context, s domain.State) domain.Update {
		items := s.Strings("items")
		items[0] = "tampered"
		return domain.Update{"messages": "first", "next": "go"}
	})
	var seen []string
	second := stepFn(func(_ context.Context, s domain.State) domain.Update {
		seen = s.Strings("items")
		return nil
	})
	g := mustBuild(t,
		map[domain.StageID]domain.Step{"first": first, "second": second},
		map[domain.StageID]graph.Router{"first": graph.Table(map[string]domain.StageID{"go": "second"})},
		"first",
	)

	out := runtime.NewExecutor().Run(context.Background(), g, mustState(t, g, map[string]any{"items": []string{"orig"}}), 10)

	assert.True(t, out.Done())
	assert.Equal(t, []string{"orig"}, seen)
	assert.Equal(t, []any{"first"}, out.State.List("messages"))
}

func TestExecutor_Hooks(t *testing.T) {
	var events []string
	hooks := domain.LifecycleHooks{
		OnRunStart:   func(_ context.Context, e *domain.RunEvent) { events = append(events, "start:"+string(e.Entry)) },
		OnStageEnter: func(_ context.Context, e *domain.StageEvent) { events = append(events, "enter:"+string(e.Stage)) },
		OnStageLeave: func(_ context.Context, e *domain.StageEvent) {
			events = append(events, "leave:"+string(e.Stage)+"->"+string(e.Next))
		},
		OnRunEnd: func(_ context.Context, e *domain.RunEvent) { events = append(events, "end:"+string(e.Outcome.Status)) },
	}
	fetch := stepFn(func(context.Context, domain.State) domain.Update {
		return domain.Update{"items": []string{"x"}, "next": "summarize"}
	})
	g := fetchSummarizeGraph(t, fetch)

	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	out := runtime.NewExecutor(
		runtime.WithLifecycleHooks(hooks),
		runtime.WithRunIDGenerator(func() string { return "run-1" }),
		runtime.WithClock(func() time.Time { return fixed }),
	).Run(context.Background(), g, mustState(t, g, nil), 10)

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, []string{
		"start:fetch",
		"enter:fetch", "leave:fetch->summarize",
		"enter:summarize", "leave:summarize->END",
		"end:done",
	}, events)
}

func TestExecutor_TerminalIsFinal(t *testing.T) {
	var calls atomic.Int32
	once := stepFn(func(context.Context, domain.State) domain.Update {
		calls.Add(1)
		return domain.Update{"next": "END"}
	})
	g := mustBuild(t,
		map[domain.StageID]domain.Step{"once": once},
		map[domain.StageID]graph.Router{"once": graph.Table(map[string]domain.StageID{"END": domain.End, "once": "once"})},
		"once",
	)

	out := runtime.NewExecutor().Run(context.Background(), g, mustState(t, g, nil), 10)

	assert.True(t, out.Done())
	assert.EqualValues(t, 1, calls.Load())
}

func TestExecutor_PanickingHookIsContained(t *testing.T) {
	var ended atomic.Bool
	hooks := domain.LifecycleHooks{
		OnRunStart:   func(context.Context, *domain.RunEvent) { panic("start boom") },
		OnStageEnter: func(context.Context, *domain.StageEvent) { panic("enter boom") },
		OnStageLeave: func(context.Context, *domain.StageEvent) { panic("metrics boom") },
		OnRunEnd: func(context.Context, *domain.RunEvent) {
			ended.Store(true)
			panic("end boom")
		},
	}
	fetch := stepFn(func(context.Context, domain.State) domain.Update {
		return domain.Update{"items": []string{"x"}, "next": "summarize"}
	})
	g := fetchSummarizeGraph(t, fetch)

	var out domain.Outcome
	require.NotPanics(t, func() {
		out = runtime.NewExecutor(runtime.WithLifecycleHooks(hooks)).Run(context.Background(), g, mustState(t, g, nil), 10)
	})

	assert.True(t, out.Done(), "reason: %s", out.Reason)
	assert.Equal(t, "report of x", out.State.String("report"))
	assert.True(t, ended.Load())
}

func TestExecutor_RepeatRunsAreIdentical(t *testing.T) {
	draft := stepFn(func(_ context.Context, s domain.State) domain.Update {
		n := s.Int("counter") + 1
		u := domain.Update{"counter": n, "messages": fmt.Sprintf("draft %d", n), "next": "draft"}
		if n == 3 {
			u["next"] = "review"
		}
		return u
	})
	review := stepFn(func(_ context.Context, s domain.State) domain.Update {
		return domain.Update{"messages": []string{"review", "approve"}, "report": strings.Join(s.Strings("messages"), ","), "next": "END"}
	})
	g := mustBuild(t,
		map[domain.StageID]domain.Step{"draft": draft, "review": review},
		map[domain.StageID]graph.Router{
			"draft":  graph.Table(map[string]domain.StageID{"draft": "draft", "review": "review"}),
			"review": graph.Table(map[string]domain.StageID{"END": domain.End}),
		},
		"draft",
	)
	exec := runtime.NewExecutor()

	first := exec.Run(context.Background(), g, mustState(t, g, map[string]any{"query": "q"}), 10)
	second := exec.Run(context.Background(), g, mustState(t, g, map[string]any{"query": "q"}), 10)

	require.True(t, first.Done(), "reason: %s", first.Reason)
	require.True(t, second.Done(), "reason: %s", second.Reason)
	assert.Equal(t, []domain.StageID{"draft", "draft", "draft", "review"}, first.Path)
	assert.Equal(t, first.Path, second.Path)
	assert.Equal(t, []string{"draft 1", "draft 2", "draft 3", "review", "approve"}, first.State.Strings("messages"))
	assert.Equal(t, first.State.List("messages"), second.State.List("messages"))
	assert.Equal(t, first.State.String("report"), second.State.String("report"))
}
