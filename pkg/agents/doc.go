// Package agents implements the stages of the research pipelines: a researcher
// that gathers trending topics, a collector that retrieves articles, an analyst,
// a sentiment scorer, a writer and an editor, plus the single-agent stage.
//
// Every agent honours the step contract. Collaborator failures never escape:
// they are written to the status field and the agent routes to its fallback.
package agents
