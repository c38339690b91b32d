package cli

import (
	"github.com/aretw0/relay/internal/compiler"
	"github.com/aretw0/relay/pkg/adapters/memory"
	"github.com/aretw0/relay/pkg/domain"
	"github.com/aretw0/relay/pkg/registry"
	"github.com/aretw0/relay/pkg/workflows"
)

// Validation is the result of checking one pipeline file.
type Validation struct {
	Pipeline    *compiler.Pipeline
	Unreachable []domain.StageID
}

// ValidatePipeline compiles the pipeline at path against offline collaborators.
// Construction errors are returned as is; unreachable stages are only reported.
func ValidatePipeline(path string) (Validation, error) {
	catalog := memory.NewCatalog()
	reg := registry.Agents(workflows.Deps{
		Topics:    catalog,
		Retriever: catalog,
		Generator: memory.NewGenerator(),
	})
	p, err := compiler.CompileFile(path, reg)
	if err != nil {
		return Validation{}, err
	}
	return Validation{Pipeline: p, Unreachable: p.Graph.Unreachable()}, nil
}
