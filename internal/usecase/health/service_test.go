package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockDBPinger struct {
	err error
}

func (m *mockDBPinger) Ping(_ context.Context) error { return m.err }

type mockSummaryChecker struct {
	err error
}

func (m *mockSummaryChecker) HealthCheck(_ context.Context) error { return m.err }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockSummaryChecker{}, []string{"brave", "tavily"})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["database"] != CheckOK {
		t.Errorf("expected database %q, got %q", CheckOK, r.Checks["database"])
	}
	if r.Checks["summary"] != CheckOK {
		t.Errorf("expected summary %q, got %q", CheckOK, r.Checks["summary"])
	}
	if len(r.Backends) != 2 {
		t.Errorf("Backends = %v, want 2 entries", r.Backends)
	}
}

func TestCheck_DBError(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("conn refused")}, &mockSummaryChecker{}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Errorf("expected database %q, got %q", CheckError, r.Checks["database"])
	}
	if r.Checks["summary"] != CheckOK {
		t.Errorf("expected summary %q, got %q", CheckOK, r.Checks["summary"])
	}
}

func TestCheck_SummaryError(t *testing.T) {
	svc := New(&mockDBPinger{}, &mockSummaryChecker{err: errors.New("timeout")}, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["summary"] != CheckError {
		t.Errorf("expected summary %q, got %q", CheckError, r.Checks["summary"])
	}
}

func TestCheck_NoSummary(t *testing.T) {
	svc := New(&mockDBPinger{}, nil, []string{"brave"})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if _, ok := r.Checks["summary"]; ok {
		t.Error("summary check should be absent when provider is nil")
	}
}

func TestCheck_NoSummary_DBError(t *testing.T) {
	svc := New(&mockDBPinger{err: errors.New("fail")}, nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["database"] != CheckError {
		t.Error("expected database error")
	}
}
