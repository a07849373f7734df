package admission

import (
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"

	domadm "github.com/kailas-cloud/trovex/internal/domain/admission"
	"github.com/kailas-cloud/trovex/internal/domain/source"
)

// --- Mocks ---

type mockHistory struct {
	seen      map[string]bool
	seenErr   error
	marked    []string
	markErr   error
	unmarked  []string
	unmarkErr error
}

func (m *mockHistory) Seen(_ context.Context, url string) (bool, error) {
	if m.seenErr != nil {
		return false, m.seenErr
	}
	return m.seen[url], nil
}

func (m *mockHistory) Mark(_ context.Context, urls ...string) error {
	if m.markErr != nil {
		return m.markErr
	}
	m.marked = append(m.marked, urls...)
	return nil
}

func (m *mockHistory) Unmark(_ context.Context, urls ...string) error {
	if m.unmarkErr != nil {
		return m.unmarkErr
	}
	m.unmarked = append(m.unmarked, urls...)
	return nil
}

type mockArchive struct {
	batches [][]domadm.Result
	err     error
}

func (m *mockArchive) Put(_ context.Context, batch []domadm.Result) ([]string, error) {
	if m.err != nil {
		return nil, m.err
	}
	m.batches = append(m.batches, batch)
	ids := make([]string, len(batch))
	for i := range batch {
		ids[i] = batch[i].Record.URL
	}
	return ids, nil
}

func record(url string, credibility float64) source.Record {
	return source.Record{URL: url, Domain: "example.org", CredibilityScore: credibility}
}

// --- Tests ---

func TestAdmit_ThresholdAndTiers(t *testing.T) {
	history := &mockHistory{seen: map[string]bool{}}
	archive := &mockArchive{}
	svc := New(history, archive, 0.75, zap.NewNop())

	records := []source.Record{
		record("https://a.example/high", 0.95),
		record("https://a.example/mid", 0.80),
		record("https://a.example/low", 0.60),
	}

	results, ids, err := svc.Admit(context.Background(), records)
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}

	if results[0].Status != domadm.StatusAdmitted || results[0].Tier != domadm.TierHigh {
		t.Errorf("high record: %+v", results[0])
	}
	if results[1].Status != domadm.StatusAdmitted || results[1].Tier != domadm.TierMedium {
		t.Errorf("mid record: %+v", results[1])
	}
	if results[2].Status != domadm.StatusBelowThreshold {
		t.Errorf("low record: %+v", results[2])
	}

	if len(ids) != 2 {
		t.Errorf("len(ids) = %d, want 2", len(ids))
	}
	if len(history.marked) != 2 {
		t.Errorf("marked = %v, want 2 urls", history.marked)
	}
	if len(archive.batches) != 1 || len(archive.batches[0]) != 2 {
		t.Errorf("archive batches = %v", archive.batches)
	}
}

func TestAdmit_ExactThresholdAdmitted(t *testing.T) {
	history := &mockHistory{seen: map[string]bool{}}
	svc := New(history, &mockArchive{}, 0.75, zap.NewNop())

	results, _, err := svc.Admit(context.Background(), []source.Record{
		record("https://a.example/edge", 0.75),
	})
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if results[0].Status != domadm.StatusAdmitted {
		t.Errorf("record at exact threshold: %+v", results[0])
	}
}

func TestAdmit_DuplicateSkipped(t *testing.T) {
	history := &mockHistory{seen: map[string]bool{"https://a.example/dup": true}}
	archive := &mockArchive{}
	svc := New(history, archive, 0.75, zap.NewNop())

	results, ids, err := svc.Admit(context.Background(), []source.Record{
		record("https://a.example/dup", 0.9),
		record("https://a.example/new", 0.9),
	})
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if results[0].Status != domadm.StatusDuplicate {
		t.Errorf("duplicate record: %+v", results[0])
	}
	if results[1].Status != domadm.StatusAdmitted {
		t.Errorf("new record: %+v", results[1])
	}
	if len(ids) != 1 {
		t.Errorf("len(ids) = %d, want 1", len(ids))
	}
}

func TestAdmit_NothingEligibleSkipsStore(t *testing.T) {
	history := &mockHistory{seen: map[string]bool{}}
	archive := &mockArchive{}
	svc := New(history, archive, 0.75, zap.NewNop())

	results, ids, err := svc.Admit(context.Background(), []source.Record{
		record("https://a.example/low", 0.3),
	})
	if err != nil {
		t.Fatalf("Admit() error = %v", err)
	}
	if len(results) != 1 || results[0].Status != domadm.StatusBelowThreshold {
		t.Errorf("results = %+v", results)
	}
	if ids != nil {
		t.Errorf("ids = %v, want nil", ids)
	}
	if len(archive.batches) != 0 {
		t.Error("archive should not be called with an empty batch")
	}
	if len(history.marked) != 0 {
		t.Error("history should not be marked")
	}
}

func TestAdmit_HistoryError(t *testing.T) {
	history := &mockHistory{seenErr: errors.New("store down")}
	svc := New(history, &mockArchive{}, 0.75, zap.NewNop())

	_, _, err := svc.Admit(context.Background(), []source.Record{
		record("https://a.example/x", 0.9),
	})
	if err == nil {
		t.Fatal("expected error when history lookup fails")
	}
}

func TestAdmit_ArchiveFailureUnmarksHistory(t *testing.T) {
	history := &mockHistory{seen: map[string]bool{}}
	archive := &mockArchive{err: errors.New("archive down")}
	svc := New(history, archive, 0.75, zap.NewNop())

	_, _, err := svc.Admit(context.Background(), []source.Record{
		record("https://a.example/x", 0.9),
		record("https://a.example/y", 0.8),
	})
	if err == nil {
		t.Fatal("expected error when archive write fails")
	}
	if len(history.unmarked) != 2 {
		t.Errorf("unmarked = %v, want both urls rolled back", history.unmarked)
	}
}

func TestAdmit_UnmarkFailureKeepsArchiveError(t *testing.T) {
	history := &mockHistory{seen: map[string]bool{}, unmarkErr: errors.New("store down")}
	archive := &mockArchive{err: errors.New("archive down")}
	svc := New(history, archive, 0.75, zap.NewNop())

	_, _, err := svc.Admit(context.Background(), []source.Record{
		record("https://a.example/x", 0.9),
	})
	if err == nil || !strings.Contains(err.Error(), "archive") {
		t.Errorf("err = %v, want the archive failure", err)
	}
}

func TestAdmit_DefaultThreshold(t *testing.T) {
	svc := New(&mockHistory{}, &mockArchive{}, 0, zap.NewNop())
	if svc.Threshold() != domadm.DefaultThreshold {
		t.Errorf("Threshold() = %v, want %v", svc.Threshold(), domadm.DefaultThreshold)
	}
}
