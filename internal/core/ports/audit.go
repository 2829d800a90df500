package ports

import (
	"context"

	"github.com/openhms/hms-portal/internal/core/domain"
)

// AuditRepository persists session lifecycle events.
type AuditRepository interface {
	InsertEvent(ctx context.Context, event *domain.AuthEvent) error
}

// AuditSink accepts events for asynchronous persistence. Enqueue never blocks.
type AuditSink interface {
	Enqueue(event domain.AuthEvent)
}

// AuditService processes one queued event.
type AuditService interface {
	Process(ctx context.Context, event domain.AuthEvent) error
}

// ExpiryDedup remembers which session tokens were already reported expired.
type ExpiryDedup interface {
	IsDuplicate(ctx context.Context, fingerprint string) (bool, error)
	Mark(ctx context.Context, fingerprint string) error
}
