package mocks

import (
	"context"

	"github.com/jdutton/n8n-pii-sanitization/internal/domain/audit"
	"github.com/stretchr/testify/mock"
)

// AuditRepository is a mock for repository.AuditRepository.
type AuditRepository struct {
	mock.Mock
}

func (m *AuditRepository) Log(ctx context.Context, event *audit.Event) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *AuditRepository) List(ctx context.Context, opts audit.ListOptions) ([]audit.Event, error) {
	args := m.Called(ctx, opts)
	if events, ok := args.Get(0).([]audit.Event); ok {
		return events, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *AuditRepository) GetLast(ctx context.Context, sessionID string) (*audit.Event, error) {
	args := m.Called(ctx, sessionID)
	if event, ok := args.Get(0).(*audit.Event); ok {
		return event, args.Error(1)
	}
	return nil, args.Error(1)
}
