package callflow

import "context"

// handleTransfer starts an escalation for a call that landed on the
// transfer phase without going through an inline escalate, a
// redirected leg for example. Escalation is idempotent per call id.
func (e *Engine) handleTransfer(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	return e.escalate(ctx, s), nil
}

// handleTransferResult consumes the dial action callback: a bridged
// call ends cleanly, anything else parks the caller in the hold queue.
func (e *Engine) handleTransferResult(ctx context.Context, s *CallState, ev Event) (Outcome, error) {
	plan := e.transfer.Complete(ctx, e.transferRequest(s), ev.DialStatus)
	return e.applyPlan(s, plan), nil
}
