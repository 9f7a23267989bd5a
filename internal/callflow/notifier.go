package callflow

import "careline/internal/notify"

// Notifier dispatches follow-up messages without blocking the call
// path. Delivery is best effort; handlers fire and forget.
type Notifier interface {
	SendConfirmation(msg notify.Confirmation)
	TriggerRedistribution(req notify.Redistribution)
}

type noopNotifier struct{}

func (noopNotifier) SendConfirmation(notify.Confirmation) {}

func (noopNotifier) TriggerRedistribution(notify.Redistribution) {}
