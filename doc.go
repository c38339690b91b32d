/*
Package relay is a single-process orchestrator for pipelines of cooperating stages.

Stages share one typed state. Each stage reads a snapshot, performs its work
(often calling a language model or a retrieval service), and returns a partial
update. The engine merges that update, asks the stage's router where to go next,
and repeats until the END sentinel is reached or the step budget runs out.

# Concept

A pipeline is a graph of stages built once, up front. Construction fails fast on
dangling routes and unknown entries, so routing at run time is total: an unknown
or missing decision always falls back to END. Stages never fail past their own
boundary; they absorb errors into a status diagnostic and route to a fallback.
The engine recovers stages that break this rule and ends the run cleanly.

# Key Features

  - Typed shared state with overwrite and append-only fields.
  - Fail-fast graph construction; cycles are allowed and bounded by a step budget.
  - Cooperative cancellation with the last merged snapshot preserved.
  - Lifecycle hooks for logging and metrics.

# Usage

	s := schema.MustNew("next", "status", map[string]schema.Field{
		"query":  schema.Value(schema.String()).Require(),
		"items":  schema.Value(schema.Slice(schema.String())),
		"report": schema.Value(schema.String()),
		"next":   schema.Value(schema.String()),
		"status": schema.Value(schema.String()),
	})

	b := dsl.New(s)
	b.Add("fetch").Do(fetch).Branch("summarize", "summarize")
	b.Add("summarize").Do(summarize).Terminal()

	g, err := b.Build()
	if err != nil {
		log.Fatal(err)
	}

	eng, _ := relay.New(g, relay.WithMaxSteps(10))
	out, err := eng.Run(ctx, map[string]any{"query": "golang"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.Status, out.State.String("report"))

Ready-made multi-agent and single-agent research pipelines live in pkg/workflows.
The relay command in cmd/relay runs them from the terminal and serves them over
HTTP and the Model Context Protocol.
*/
package relay
