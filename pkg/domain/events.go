package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart          EventType = "run_start"
	EventStageEnter        EventType = "stage_enter"
	EventStageLeave        EventType = "stage_leave"
	EventContractViolation EventType = "contract_violation"
	EventRunEnd            EventType = "run_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// StageEvent represents entry into or exit from a stage.
// Duration, Next and Status are only set on exit.
type StageEvent struct {
	EventBase
	Stage    StageID       `json:"stage"`
	Step     int           `json:"step"`
	Duration time.Duration `json:"duration,omitempty"`
	Next     StageID       `json:"next,omitempty"`
	Status   string        `json:"status,omitempty"`
}

// ViolationEvent reports a stage failure that escaped the stage boundary.
type ViolationEvent struct {
	EventBase
	Stage StageID `json:"stage"`
	Value any     `json:"value"`
}

// RunEvent marks the start or the end of a run. Outcome is nil at start.
type RunEvent struct {
	EventBase
	Entry   StageID  `json:"entry"`
	Outcome *Outcome `json:"outcome,omitempty"`
}

// LifecycleHooks defines callbacks for executor observability.
type LifecycleHooks struct {
	OnRunStart          func(context.Context, *RunEvent)
	OnStageEnter        func(context.Context, *StageEvent)
	OnStageLeave        func(context.Context, *StageEvent)
	OnContractViolation func(context.Context, *ViolationEvent)
	OnRunEnd            func(context.Context, *RunEvent)
}

// ChainHooks returns hooks that call each of the given hooks in order.
func ChainHooks(all ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *RunEvent) {
			for _, h := range all {
				if h.OnRunStart != nil {
					h.OnRunStart(ctx, e)
				}
			}
		},
		OnStageEnter: func(ctx context.Context, e *StageEvent) {
			for _, h := range all {
				if h.OnStageEnter != nil {
					h.OnStageEnter(ctx, e)
				}
			}
		},
		OnStageLeave: func(ctx context.Context, e *StageEvent) {
			for _, h := range all {
				if h.OnStageLeave != nil {
					h.OnStageLeave(ctx, e)
				}
			}
		},
		OnContractViolation: func(ctx context.Context, e *ViolationEvent) {
			for _, h := range all {
				if h.OnContractViolation != nil {
					h.OnContractViolation(ctx, e)
				}
			}
		},
		OnRunEnd: func(ctx context.Context, e *RunEvent) {
			for _, h := range all {
				if h.OnRunEnd != nil {
					h.OnRunEnd(ctx, e)
				}
			}
		},
	}
}
