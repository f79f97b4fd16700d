package service

import (
	"time"

	"github.com/google/uuid"

	"github.com/memory-app/memory-api/internal/core/domain"
	"github.com/memory-app/memory-api/internal/core/ports"
)

// emit stamps ev with an id and time and hands it to rec. A nil recorder
// disables auditing.
func emit(rec ports.AuditRecorder, now time.Time, ev domain.AuditEvent) {
	if rec == nil {
		return
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.OccurredAt.IsZero() {
		ev.OccurredAt = now.UTC()
	}
	rec.Record(ev)
}
