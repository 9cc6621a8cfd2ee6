package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the client is initialized but the backend does not answer.
	Degraded Status = "degraded"
	// Unhealthy indicates the client never initialized.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
	// CheckSkipped indicates the check could not run.
	CheckSkipped CheckResult = "skipped"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Provider string
	Checks   map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	backend Backend
}

// New creates a Service.
func New(backend Backend) *Service {
	return &Service{backend: backend}
}

// Check reports initialization state and backend reachability.
func (s *Service) Check(ctx context.Context) Report {
	r := Report{
		Status:   Healthy,
		Provider: s.backend.ProviderName(),
		Checks:   make(map[string]CheckResult, 2),
	}

	if !s.backend.Ready() {
		r.Checks["init"] = CheckError
		r.Checks["provider"] = CheckSkipped
		r.Status = Unhealthy
		return r
	}
	r.Checks["init"] = CheckOK

	if err := s.backend.Ping(ctx); err != nil {
		r.Checks["provider"] = CheckError
		r.Status = Degraded
	} else {
		r.Checks["provider"] = CheckOK
	}
	return r
}
