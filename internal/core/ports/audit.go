package ports

import (
	"context"

	"github.com/userauth/auth-service/internal/core/domain"
)

// AuditRecorder accepts events without blocking the request path.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}
