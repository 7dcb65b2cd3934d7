package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
)

// mockBusinessMetrics is a local mock for metrics.BusinessMetrics.
type mockBusinessMetrics struct {
	mock.Mock
}

func (m *mockBusinessMetrics) RecordOperation(ctx context.Context, domain, operation, status string) {
	m.Called(ctx, domain, operation, status)
}

func (m *mockBusinessMetrics) RecordDuration(
	ctx context.Context,
	domain, operation string,
	duration time.Duration,
	status string,
) {
	m.Called(ctx, domain, operation, duration, status)
}

// mockAuthorizer is a mock implementation of Authorizer.
type mockAuthorizer struct {
	mock.Mock
}

func (m *mockAuthorizer) Authorize(
	ctx context.Context,
	subject authzDomain.Subject,
	action authzDomain.Action,
	resource *authzDomain.Resource,
) (authzDomain.Decision, error) {
	args := m.Called(ctx, subject, action, resource)
	return args.Get(0).(authzDomain.Decision), args.Error(1)
}

func TestMetricsDecorator_Authorize(t *testing.T) {
	ctx := context.Background()
	subject := authzDomain.Subject{
		UserID: uuid.Must(uuid.NewV7()),
		Roles:  []authzDomain.Role{authzDomain.RoleVaultOwner},
	}

	tests := []struct {
		name       string
		decision   authzDomain.Decision
		err        error
		wantStatus string
	}{
		{"allow decision recorded", authzDomain.Allow(), nil, "allow"},
		{"deny decision recorded", authzDomain.Deny("access denied"), nil, "deny"},
		{"error recorded", authzDomain.Decision{}, errors.New("store timeout"), "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := &mockAuthorizer{}
			businessMetrics := &mockBusinessMetrics{}
			decorated := NewMetricsDecorator(next, businessMetrics)

			next.On("Authorize", ctx, subject, authzDomain.ActionVaultCreate, (*authzDomain.Resource)(nil)).
				Return(tt.decision, tt.err).
				Once()
			businessMetrics.On("RecordOperation", ctx, "authz", "vault.create", tt.wantStatus).
				Return().
				Once()
			businessMetrics.On("RecordDuration", ctx, "authz", "vault.create", mock.AnythingOfType("time.Duration"), tt.wantStatus).
				Return().
				Once()

			decision, err := decorated.Authorize(ctx, subject, authzDomain.ActionVaultCreate, nil)

			assert.Equal(t, tt.decision, decision)
			assert.Equal(t, tt.err, err)
			next.AssertExpectations(t)
			businessMetrics.AssertExpectations(t)
		})
	}
}
