package transfer

import (
	"context"

	"careline/internal/audit"
)

// AuditLogger records override applications. The orchestrator treats it
// as best-effort and ignores errors.
type AuditLogger interface {
	LogOverrideApplied(ctx context.Context, agencyID, callID, target string) error
}

// AuditAdapter bridges the orchestrator's audit hook to the shared
// audit.Service. A nil Audit drops the records.
type AuditAdapter struct {
	Audit *audit.Service
}

func (a AuditAdapter) LogOverrideApplied(ctx context.Context, agencyID, callID, target string) error {
	if a.Audit == nil {
		return nil
	}
	return a.Audit.LogOverrideApplied(ctx, agencyID, callID, target)
}
