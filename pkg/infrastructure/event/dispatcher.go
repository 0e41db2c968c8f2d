package event

import (
	log "github.com/sirupsen/logrus"

	"checkout/pkg/domain/service"
)

// LogDispatcher records domain events in the structured log. The subsystem
// has no downstream event consumers; the log is the audit trail.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(e service.Event) error {
	log.WithField("event", e.Type()).WithField("payload", e).Info("domain event")
	return nil
}
