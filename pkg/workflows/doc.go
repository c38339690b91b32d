// Package workflows assembles the agents into runnable graphs: the multi-agent
// research pipeline and the single-agent assistant.
package workflows
