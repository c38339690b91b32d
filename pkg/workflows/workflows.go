package workflows

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/relay/pkg/agents"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/dsl"
	"github.com/aretw0/relay/pkg/graph"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/aretw0/relay/pkg/schema"
)

// System names.
const (
	Multi  = "multi"
	Single = "single"
)

// Stage identifiers of the multi-agent pipeline.
const (
	StageResearch  domain.StageID = "research"
	StageCollect   domain.StageID = "collect"
	StageAnalyze   domain.StageID = "analyze"
	StageSentiment domain.StageID = "sentiment"
	StageWrite     domain.StageID = "write"
	StageEdit      domain.StageID = "edit"
	StageProcess   domain.StageID = "process"
)

// Sampling temperatures per agent, applied when the generator is ports.Tunable.
const (
	TemperatureResearch = 0.3
	TemperatureAnalysis = 0.5
	TemperatureWriting  = 0.7
	TemperatureEditing  = 0.3
)

// Deps are the collaborators shared by every agent.
type Deps struct {
	Topics        ports.TopicSource
	Retriever     ports.Retriever
	Generator     ports.Generator
	// FastGenerator serves the single-agent assistant. Generator is used when nil.
	FastGenerator ports.Generator
	Logger        *slog.Logger
}

func (d Deps) check() error {
	if d.Topics == nil || d.Retriever == nil || d.Generator == nil {
		return fmt.Errorf("%w: topic source, retriever and generator are required", graph.ErrConstruction)
	}
	return nil
}

// Options toggle the optional stages of the multi-agent pipeline.
type Options struct {
	MaxTopics int
	Timeframe string
	Sentiment bool
	Edit      bool
}

// MultiAgentSchema declares the research pipeline state.
func MultiAgentSchema() *schema.Schema {
	return schema.MustNew(agents.FieldNext, agents.FieldStatus, map[string]schema.Field{
		agents.FieldMessages:  schema.List(schema.Any()),
		agents.FieldTask:      schema.Value(schema.String()).Require(),
		agents.FieldNotes:     schema.Value(schema.String()),
		agents.FieldTopics:    schema.Value(schema.Slice(schema.String())),
		agents.FieldArticles:  schema.Value(schema.Any()),
		agents.FieldAnalysis:  schema.Value(schema.String()),
		agents.FieldPatterns:  schema.Value(schema.Slice(schema.String())),
		agents.FieldSentiment: schema.Value(schema.Map()),
		agents.FieldReport:    schema.Value(schema.String()),
		agents.FieldNext:      schema.Value(schema.String()),
		agents.FieldStatus:    schema.Value(schema.String()),
	})
}

// SingleAgentSchema declares the assistant state.
func SingleAgentSchema() *schema.Schema {
	return schema.MustNew(agents.FieldSingleNext, agents.FieldStatus, map[string]schema.Field{
		agents.FieldSingleTask:   schema.Value(schema.String()).Require(),
		agents.FieldSingleResult: schema.Value(schema.String()),
		agents.FieldMessages:     schema.List(schema.Any()),
		agents.FieldSingleNext:   schema.Value(schema.String()),
		agents.FieldStatus:       schema.Value(schema.String()),
	})
}

// MultiAgent builds the research pipeline:
// research -> collect -> analyze -> [sentiment] -> write -> [edit].
func MultiAgent(d Deps, o Options) (*graph.Graph, error) {
	if err := d.check(); err != nil {
		return nil, err
	}

	b := dsl.New(MultiAgentSchema())

	b.Add(StageResearch).
		Do(&agents.Researcher{Topics: d.Topics, Generator: ports.Tune(d.Generator, TemperatureResearch), Timeframe: o.Timeframe, Logger: d.Logger}).
		Branch(agents.DecideCollector, StageCollect).
		Branch(agents.DecideAnalyst, StageAnalyze).
		Branch(agents.DecideWriter, StageWrite).
		Branch(agents.DecideEnd, domain.End)

	b.Add(StageCollect).
		Do(&agents.Collector{Retriever: d.Retriever, MaxTopics: o.MaxTopics, Logger: d.Logger}).
		Branch(agents.DecideAnalyst, StageAnalyze).
		Branch(agents.DecideWriter, StageWrite).
		Branch(agents.DecideEnd, domain.End)

	analyze := b.Add(StageAnalyze).
		Do(&agents.Analyst{Generator: ports.Tune(d.Generator, TemperatureAnalysis), Sentiment: o.Sentiment, Logger: d.Logger}).
		Branch(agents.DecideWriter, StageWrite).
		Branch(agents.DecideEnd, domain.End)

	if o.Sentiment {
		analyze.Branch(agents.DecideSentiment, StageSentiment)
		b.Add(StageSentiment).
			Do(&agents.SentimentScorer{Logger: d.Logger}).
			Branch(agents.DecideWriter, StageWrite).
			Branch(agents.DecideEnd, domain.End)
	}

	write := b.Add(StageWrite).
		Do(&agents.Writer{Generator: ports.Tune(d.Generator, TemperatureWriting), Edit: o.Edit, Logger: d.Logger}).
		Branch(agents.DecideEnd, domain.End)

	if o.Edit {
		write.Branch(agents.DecideEditor, StageEdit)
		b.Add(StageEdit).
			Do(&agents.Editor{Generator: ports.Tune(d.Generator, TemperatureEditing), Logger: d.Logger}).
			Terminal()
	}

	return b.Entry(StageResearch).Build()
}

// SingleAgent builds the one-stage assistant graph.
func SingleAgent(d Deps) (*graph.Graph, error) {
	if err := d.check(); err != nil {
		return nil, err
	}
	gen := d.FastGenerator
	if gen == nil {
		gen = d.Generator
	}
	return dsl.New(SingleAgentSchema()).
		Add(StageProcess).
		Do(&agents.Single{Topics: d.Topics, Retriever: d.Retriever, Generator: gen, Logger: d.Logger}).
		Branch(agents.DecideEnd, domain.End).
		Build()
}

// Build returns the graph of the named system.
func Build(system string, d Deps, o Options) (*graph.Graph, error) {
	switch system {
	case Multi, "":
		return MultiAgent(d, o)
	case Single:
		return SingleAgent(d)
	default:
		return nil, fmt.Errorf("unknown system %q (want %s or %s)", system, Multi, Single)
	}
}

// TaskField returns the name of the field that carries the task for a system.
func TaskField(system string) string {
	if system == Single {
		return agents.FieldSingleTask
	}
	return agents.FieldTask
}

// ResultField returns the field holding the final answer for a system.
func ResultField(system string) string {
	if system == Single {
		return agents.FieldSingleResult
	}
	return agents.FieldReport
}
