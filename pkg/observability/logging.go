package observability

import (
	"log/slog"

	"github.com/aretw0/branchwise/pkg/domain"
)

// LoggingHooks writes one structured record per lifecycle event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	log := func(e *domain.FlowEvent) {
		attrs := []any{
			"session_id", e.SessionID,
			"phase", e.Phase,
		}
		if e.NodeID != "" {
			attrs = append(attrs, "node_id", e.NodeID)
		}
		if e.Label != "" {
			attrs = append(attrs, "label", e.Label)
		}
		if e.Previous != "" {
			attrs = append(attrs, "previous", e.Previous)
		}
		if e.Value != nil {
			attrs = append(attrs, "value", *e.Value)
		}
		logger.Info(string(e.Type), attrs...)
	}
	return domain.LifecycleHooks{
		OnNodeEnter:  log,
		OnDecision:   log,
		OnRevision:   log,
		OnMenuAnswer: log,
		OnPhaseEnter: log,
		OnComplete:   log,
		OnReset:      log,
	}
}
