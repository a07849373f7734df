package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
	// Unhealthy indicates total failure.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Report aggregates health check results.
type Report struct {
	Status   Status
	Checks   map[string]CheckResult
	Backends []string // configured search backend names
}

// Service coordinates health checks.
type Service struct {
	db       DBPinger
	summary  SummaryChecker
	backends []string
}

// New creates a Service. summary can be nil.
func New(db DBPinger, summary SummaryChecker, backends []string) *Service {
	return &Service{db: db, summary: summary, backends: backends}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	if err := s.db.Ping(ctx); err != nil {
		checks["database"] = CheckError
	} else {
		checks["database"] = CheckOK
	}

	if s.summary != nil {
		if err := s.summary.HealthCheck(ctx); err != nil {
			checks["summary"] = CheckError
		} else {
			checks["summary"] = CheckOK
		}
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks, Backends: s.backends}
}
