// Package schema declares the shape of a pipeline's shared state.
//
// A Schema lists every field together with its value Type and its merge Kind.
// Overwrite fields take the latest value written by a stage; Accumulate fields
// are append-only sequences. Two overwrite string fields are special: the
// routing field carries a stage's decision about what runs next, and the status
// field carries a human-readable diagnostic.
//
// Basic usage:
//
//	s := schema.MustNew("next", "status", map[string]schema.Field{
//	    "query":    schema.Value(schema.String()).Require(),
//	    "items":    schema.Value(schema.Slice(schema.String())),
//	    "messages": schema.List(schema.Map()),
//	    "next":     schema.Value(schema.String()),
//	    "status":   schema.Value(schema.String()),
//	})
//
//	if err := s.Validate(map[string]any{"query": "go"}); err != nil {
//	    // Handle validation errors
//	}
//
// Types can also be parsed from strings, which is how pipeline definition
// files declare them:
//
//	f, err := schema.ParseField("[string]", "overwrite", false)
//
// Custom validators can be registered for domain-specific validation:
//
//	positiveInt := schema.Custom("positive_int", func(v any) error {
//	    i, ok := v.(int)
//	    if !ok {
//	        return fmt.Errorf("expected int")
//	    }
//	    if i <= 0 {
//	        return fmt.Errorf("must be positive")
//	    }
//	    return nil
//	})
//
// The package has no dependencies beyond the standard library.
package schema
