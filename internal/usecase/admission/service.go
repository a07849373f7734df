// Package admission filters ranked records against the credibility
// threshold and admission history, then persists the survivors downstream.
package admission

import (
	"context"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	domadm "github.com/kailas-cloud/trovex/internal/domain/admission"
	"github.com/kailas-cloud/trovex/internal/domain/source"
	"github.com/kailas-cloud/trovex/internal/metrics"
)

// Service decides which ranked records enter the downstream store.
type Service struct {
	history   History
	archive   Archive
	threshold float64
	logger    *zap.Logger
}

// New creates an admission service. A non-positive threshold falls back to
// the default.
func New(history History, archive Archive, threshold float64, logger *zap.Logger) *Service {
	if threshold <= 0 {
		threshold = domadm.DefaultThreshold
	}
	return &Service{
		history:   history,
		archive:   archive,
		threshold: threshold,
		logger:    logger,
	}
}

// Threshold returns the active credibility floor.
func (s *Service) Threshold() float64 { return s.threshold }

// Admit evaluates ranked records in order and archives the admitted ones.
// Every input record gets a decision; the returned IDs parallel the
// admitted subset in order.
func (s *Service) Admit(ctx context.Context, records []source.Record) ([]domadm.Result, []string, error) {
	results := make([]domadm.Result, 0, len(records))
	admitted := make([]domadm.Result, 0, len(records))
	var admittedURLs []string

	for _, rec := range records {
		if !domadm.Eligible(&rec, s.threshold) {
			results = append(results, domadm.Result{Record: rec, Status: domadm.StatusBelowThreshold})
			continue
		}

		seen, err := s.history.Seen(ctx, rec.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("check admission history: %w", err)
		}
		if seen {
			results = append(results, domadm.Result{Record: rec, Status: domadm.StatusDuplicate})
			continue
		}

		tier := domadm.TierFor(rec.CredibilityScore)
		res := domadm.Result{Record: rec, Status: domadm.StatusAdmitted, Tier: tier}
		results = append(results, res)
		admitted = append(admitted, res)
		admittedURLs = append(admittedURLs, rec.URL)
	}

	if len(admitted) == 0 {
		return results, nil, nil
	}

	// Mark before Put so a retried batch never double-archives.
	if err := s.history.Mark(ctx, admittedURLs...); err != nil {
		return nil, nil, fmt.Errorf("mark admitted urls: %w", err)
	}

	ids, err := s.archive.Put(ctx, admitted)
	if err != nil {
		// Roll back the marks so the batch stays retryable. Best effort:
		// a failed unmark leaves the URLs recorded as admitted.
		if unmarkErr := s.history.Unmark(ctx, admittedURLs...); unmarkErr != nil {
			s.logger.Warn("unmark after archive failure",
				zap.Int("urls", len(admittedURLs)),
				zap.Error(unmarkErr))
		}
		return nil, nil, fmt.Errorf("archive admitted records: %w", err)
	}

	for _, res := range admitted {
		metrics.AdmittedSourcesTotal.WithLabelValues(strconv.Itoa(int(res.Tier))).Inc()
	}
	s.logger.Info("records admitted",
		zap.Int("admitted", len(admitted)),
		zap.Int("evaluated", len(records)))

	return results, ids, nil
}
