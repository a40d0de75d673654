package notify

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/chimera/internal/interfaces"
)

// EventNotifier surfaces failure notices by logging them and publishing an
// action_failed event. Connected UI clients render the event as a blocking
// notice; the daemon itself has no modal surface.
type EventNotifier struct {
	events interfaces.EventService
	logger arbor.ILogger
}

var _ interfaces.Notifier = (*EventNotifier)(nil)

// NewEventNotifier creates an EventNotifier
func NewEventNotifier(eventService interfaces.EventService, logger arbor.ILogger) *EventNotifier {
	return &EventNotifier{
		events: eventService,
		logger: logger,
	}
}

// Failure logs the notice; the queue store separately publishes the
// action_failed event with operation context
func (n *EventNotifier) Failure(ctx context.Context, message string) {
	n.logger.Warn().Str("notice", message).Msg("User-visible failure")
}

// RequestConfirmer treats an authenticated API request as consent: the
// browser UI runs its own confirmation dialog before calling the daemon, so
// the blocking yes/no decision has already happened by the time the request
// arrives.
type RequestConfirmer struct{}

var _ interfaces.Confirmer = RequestConfirmer{}

// Confirm always grants
func (RequestConfirmer) Confirm(ctx context.Context, prompt string) bool {
	return true
}
