package worker

import (
	"context"
	"log/slog"

	audit "memento/pkg/platform/audit"
)

// Worker drains audit events from a channel and persists them, keeping
// emission off the request path. A failed append is logged and dropped; the
// audit trail must never fail a calculation.
type Worker struct {
	publisher *audit.Publisher
	inbox     <-chan audit.Event
	logger    *slog.Logger
}

func NewWorker(store audit.Store, inbox <-chan audit.Event, logger *slog.Logger) *Worker {
	return &Worker{publisher: audit.NewPublisher(store), inbox: inbox, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.inbox:
			if err := w.publisher.Emit(ctx, event); err != nil {
				w.logger.Error("audit append failed, dropping event",
					"action", event.Action,
					"fingerprint", event.ProfileFingerprint,
					"error", err,
				)
			}
		}
	}
}
