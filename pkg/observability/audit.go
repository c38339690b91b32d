package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/relay/pkg/domain"
)

// AuditHooks returns lifecycle hooks that log every transition.
// Stage entries are logged at debug level, everything else at info
// (contract violations at error).
func AuditHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *domain.RunEvent) {
			logger.InfoContext(ctx, "run_start", "run_id", e.RunID, "entry", e.Entry)
		},
		OnStageEnter: func(ctx context.Context, e *domain.StageEvent) {
			logger.DebugContext(ctx, "stage_enter", "run_id", e.RunID, "stage", e.Stage, "step", e.Step)
		},
		OnStageLeave: func(ctx context.Context, e *domain.StageEvent) {
			logger.InfoContext(ctx, "stage_leave",
				"run_id", e.RunID,
				"stage", e.Stage,
				"next", e.Next,
				"status", e.Status,
				"duration", e.Duration,
			)
		},
		OnContractViolation: func(ctx context.Context, e *domain.ViolationEvent) {
			logger.ErrorContext(ctx, "contract_violation", "run_id", e.RunID, "stage", e.Stage, "value", e.Value)
		},
		OnRunEnd: func(ctx context.Context, e *domain.RunEvent) {
			if e.Outcome == nil {
				return
			}
			logger.InfoContext(ctx, "run_end",
				"run_id", e.RunID,
				"status", e.Outcome.Status,
				"reason", e.Outcome.Reason,
				"steps", e.Outcome.Steps,
				"duration", e.Outcome.Duration(),
			)
		},
	}
}
