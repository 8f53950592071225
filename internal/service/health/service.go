package health

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"client-portal/internal/domain"
)

// Service runs probe batches and reads back recorded checks. Each tenant's
// probe is isolated: a failure is recorded as a status string on that
// tenant's check and never aborts the batch.
type Service struct {
	tenants domain.TenantRepository
	checks  domain.HealthRepository
	prober  Prober
	logger  *slog.Logger

	// maxConcurrent bounds how many tenants are probed at once.
	maxConcurrent int
}

// NewService creates a health Service. maxConcurrent <= 0 defaults to 8.
func NewService(tenants domain.TenantRepository, checks domain.HealthRepository, prober Prober, logger *slog.Logger, maxConcurrent int) *Service {
	if maxConcurrent <= 0 {
		maxConcurrent = 8
	}
	return &Service{tenants: tenants, checks: checks, prober: prober, logger: logger, maxConcurrent: maxConcurrent}
}

// RunAll probes every non-archived tenant with an uptime-monitor reference
// and records one check per tenant. The returned error covers only batch
// infrastructure (listing tenants); individual probe failures are recorded,
// not returned.
func (s *Service) RunAll(ctx context.Context) error {
	tenants, err := s.tenants.ListMonitored(ctx)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.maxConcurrent)

	for _, tenant := range tenants {
		tenant := tenant
		g.Go(func() error {
			s.probeOne(ctx, tenant)
			return nil
		})
	}
	return g.Wait()
}

func (s *Service) probeOne(ctx context.Context, tenant domain.Tenant) {
	check := &domain.HealthCheck{
		TenantID:  tenant.ID,
		Status:    domain.HealthStatusUp,
		CheckedAt: time.Now().UTC(),
	}

	latency, err := s.prober.Probe(ctx, *tenant.UptimeMonitorID)
	check.LatencyMS = latency.Milliseconds()
	if err != nil {
		check.Status = domain.HealthStatusDown
		check.Detail = err.Error()
		s.logger.Warn("site probe failed", "tenant", tenant.ID, "error", err)
	}

	if err := s.checks.Insert(ctx, check); err != nil {
		s.logger.Error("record health check failed", "tenant", tenant.ID, "error", err)
	}
}

// Latest returns the most recent check for a tenant, or nil when the tenant
// has never been probed.
func (s *Service) Latest(ctx context.Context, tenantID string) (*domain.HealthCheck, error) {
	check, err := s.checks.Latest(ctx, tenantID)
	if err != nil {
		if _, ok := err.(*domain.NotFoundError); ok {
			return nil, nil
		}
		return nil, err
	}
	return check, nil
}

// History returns checks for a tenant over the trailing window.
func (s *Service) History(ctx context.Context, tenantID string, window time.Duration) ([]domain.HealthCheck, error) {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return s.checks.ListForTenant(ctx, tenantID, time.Now().UTC().Add(-window))
}
