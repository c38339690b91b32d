/*
Package dsl provides a fluent Go builder for Relay graphs.

It allows developers to declare stages and their routing without assembling the
maps graph.Build expects by hand. This is particularly useful for small
pipelines, unit tests, and leveraging IDE autocompletion/type-checking.

Example usage:

	package main

	import (
		"github.com/aretw0/relay/pkg/domain"
		"github.com/aretw0/relay/pkg/dsl"
	)

	func main() {
		b := dsl.New(mySchema)

		b.Add("fetch").
			Do(fetchStep).
			Writes("items", "next", "status").
			Branch("summarize", "summarize").
			Branch("END", domain.End)

		b.Add("summarize").
			Do(summarizeStep).
			Terminal()

		g, err := b.Build()
		// ... pass g to relay.New(g)
	}
*/
package dsl
