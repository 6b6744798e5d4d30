package repository

import (
	"context"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/audit"
)

// AuditRepository manages session lifecycle event persistence.
type AuditRepository interface {
	Log(ctx context.Context, event *audit.Event) error
	List(ctx context.Context, opts audit.ListOptions) ([]audit.Event, error)
	GetLast(ctx context.Context, sessionID string) (*audit.Event, error)
}
