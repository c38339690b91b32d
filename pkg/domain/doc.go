/*
Package domain contains the core models of the Relay pipeline orchestrator.

It defines the shared State that flows through a pipeline, the partial Update a
stage returns, the Step contract every stage honours, and the Outcome of a run.
This package is kept pure and free of I/O, following Hexagonal Architecture
principles; adapters live under pkg/adapters.

# Key Entities

  - State: immutable snapshot of the shared fields declared by a schema.
  - Update: partial set of field writes produced by one stage.
  - Step: a stage's unit of work. It never fails past its own boundary.
  - Outcome: the terminal result of a run (Done or Failed), with the last merged State.
  - LifecycleHooks: callbacks for observing stage entry, exit and contract violations.
*/
package domain
