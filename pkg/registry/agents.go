package registry

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/aretw0/relay/pkg/agents"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/ports"
	"github.com/aretw0/relay/pkg/workflows"
)

// Names of the built-in agent steps.
const (
	StepResearcher = "researcher"
	StepCollector  = "collector"
	StepAnalyst    = "analyst"
	StepSentiment  = "sentiment"
	StepWriter     = "writer"
	StepEditor     = "editor"
	StepAssistant  = "assistant"
)

type researcherParams struct {
	Timeframe   string   `mapstructure:"timeframe"`
	Limit       int      `mapstructure:"limit"`
	Temperature *float64 `mapstructure:"temperature"`
}

type collectorParams struct {
	MaxTopics int `mapstructure:"max_topics"`
	PerTopic  int `mapstructure:"per_topic"`
}

type analystParams struct {
	Sentiment   bool     `mapstructure:"sentiment"`
	Temperature *float64 `mapstructure:"temperature"`
}

type writerParams struct {
	Edit        bool     `mapstructure:"edit"`
	Temperature *float64 `mapstructure:"temperature"`
}

type generatorParams struct {
	Temperature *float64 `mapstructure:"temperature"`
}

type assistantParams struct {
	Limit int `mapstructure:"limit"`
}

func decode(params map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		ErrorUnused:      true,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(params); err != nil {
		return fmt.Errorf("invalid params: %w", err)
	}
	return nil
}

func tune(g ports.Generator, t *float64, fallback float64) ports.Generator {
	if t != nil {
		return ports.Tune(g, *t)
	}
	return ports.Tune(g, fallback)
}

// Agents returns a registry of the research agents wired to deps.
func Agents(deps workflows.Deps) *Registry {
	r := NewRegistry()

	r.Register(StepResearcher, func(params map[string]any) (domain.Step, error) {
		var p researcherParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		return &agents.Researcher{
			Topics:    deps.Topics,
			Generator: tune(deps.Generator, p.Temperature, workflows.TemperatureResearch),
			Timeframe: p.Timeframe,
			Limit:     p.Limit,
			Logger:    deps.Logger,
		}, nil
	})

	r.Register(StepCollector, func(params map[string]any) (domain.Step, error) {
		var p collectorParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		return &agents.Collector{Retriever: deps.Retriever, MaxTopics: p.MaxTopics, PerTopic: p.PerTopic, Logger: deps.Logger}, nil
	})

	r.Register(StepAnalyst, func(params map[string]any) (domain.Step, error) {
		var p analystParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		return &agents.Analyst{
			Generator: tune(deps.Generator, p.Temperature, workflows.TemperatureAnalysis),
			Sentiment: p.Sentiment,
			Logger:    deps.Logger,
		}, nil
	})

	r.Register(StepSentiment, func(params map[string]any) (domain.Step, error) {
		if err := decode(params, &struct{}{}); err != nil {
			return nil, err
		}
		return &agents.SentimentScorer{Logger: deps.Logger}, nil
	})

	r.Register(StepWriter, func(params map[string]any) (domain.Step, error) {
		var p writerParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		return &agents.Writer{
			Generator: tune(deps.Generator, p.Temperature, workflows.TemperatureWriting),
			Edit:      p.Edit,
			Logger:    deps.Logger,
		}, nil
	})

	r.Register(StepEditor, func(params map[string]any) (domain.Step, error) {
		var p generatorParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		return &agents.Editor{Generator: tune(deps.Generator, p.Temperature, workflows.TemperatureEditing), Logger: deps.Logger}, nil
	})

	r.Register(StepAssistant, func(params map[string]any) (domain.Step, error) {
		var p assistantParams
		if err := decode(params, &p); err != nil {
			return nil, err
		}
		gen := deps.FastGenerator
		if gen == nil {
			gen = deps.Generator
		}
		return &agents.Single{
			Topics:    deps.Topics,
			Retriever: deps.Retriever,
			Generator: gen,
			Limit:     p.Limit,
			Logger:    deps.Logger,
		}, nil
	})

	return r
}
