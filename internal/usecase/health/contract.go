package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// SummaryChecker checks summary provider availability.
type SummaryChecker interface {
	HealthCheck(ctx context.Context) error
}
