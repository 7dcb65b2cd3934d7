package usecase

import (
	"context"
	"time"

	authzDomain "github.com/allisson/passvault/internal/authz/domain"
	"github.com/allisson/passvault/internal/metrics"
)

// metricsDecorator wraps an Authorizer and records every decision.
type metricsDecorator struct {
	next    Authorizer
	metrics metrics.BusinessMetrics
}

const metricsDomain = "authz"

// Authorize delegates to the wrapped resolver and records the outcome as
// allow/deny/error with the action as the operation label.
func (d *metricsDecorator) Authorize(
	ctx context.Context,
	subject authzDomain.Subject,
	action authzDomain.Action,
	resource *authzDomain.Resource,
) (authzDomain.Decision, error) {
	start := time.Now()
	decision, err := d.next.Authorize(ctx, subject, action, resource)

	status := "deny"
	switch {
	case err != nil:
		status = "error"
	case decision.Allowed:
		status = "allow"
	}

	d.metrics.RecordOperation(ctx, metricsDomain, string(action), status)
	d.metrics.RecordDuration(ctx, metricsDomain, string(action), time.Since(start), status)

	return decision, err
}

// NewMetricsDecorator wraps an Authorizer with decision metrics.
func NewMetricsDecorator(next Authorizer, businessMetrics metrics.BusinessMetrics) Authorizer {
	return &metricsDecorator{next: next, metrics: businessMetrics}
}
