/*
Package ports defines the driven ports (interfaces) for the Relay orchestrator.

These interfaces decouple stages and the engine from external implementations,
allowing the same pipeline to run against a language model API, canned data,
or an offline generator, and to persist run history in various backends.

# Key Interfaces

  - Generator: turns a prompt into text (e.g., Anthropic Messages API).
  - Retriever: fetches records for a query.
  - TopicSource: lists trending topics.
  - HistoryStore: persists run records (memory, file, Redis, SQLite).
*/
package ports
