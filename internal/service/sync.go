package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yllan/newshelper-safari/internal/domain"
)

// SyncService pulls reports newer than the local cursor and commits them
// into the store. The cursor is derived from committed data, so a failed
// cycle naturally retries the same window on the next tick.
type SyncService struct {
	source  Source
	reports ReportStore
	matcher Evaluator
	logger  *slog.Logger
}

func NewSyncService(
	source Source,
	reports ReportStore,
	matcher Evaluator,
	logger *slog.Logger,
) *SyncService {
	return &SyncService{
		source:  source,
		reports: reports,
		matcher: matcher,
		logger:  logger.With("component", "sync"),
	}
}

func (s *SyncService) Sync(ctx context.Context) (*domain.SyncStats, error) {
	startTime := time.Now()

	since, err := s.reports.LatestUpdatedAt(ctx)
	if err != nil {
		return nil, fmt.Errorf("read sync cursor: %w", err)
	}

	s.logger.Info("starting sync", "since", since)

	reports, err := s.source.FetchReports(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("fetch reports: %w", err)
	}

	stats := &domain.SyncStats{
		Since:   since,
		Fetched: len(reports),
	}

	// Commit the whole batch first, then evaluate. Evaluation must see
	// every report of the batch already in the store.
	var committed []*domain.Report
	for i := range reports {
		report := &reports[i]
		wrote, err := s.reports.Upsert(ctx, report)
		if err != nil {
			stats.Errors++
			s.logger.Error("upsert report failed", "news_link", report.NewsLink, "error", err)
			continue
		}
		if !wrote {
			stats.Skipped++
			continue
		}
		stats.Committed++
		committed = append(committed, report)
	}

	for _, report := range committed {
		notified, err := s.matcher.Evaluate(ctx, report)
		if err != nil {
			stats.Errors++
			s.logger.Error("evaluate report failed", "news_link", report.NewsLink, "error", err)
			continue
		}
		if notified {
			stats.Notified++
		}
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("sync completed",
		"fetched", stats.Fetched,
		"committed", stats.Committed,
		"skipped", stats.Skipped,
		"errors", stats.Errors,
		"notified", stats.Notified,
		"duration", stats.Duration,
	)

	return stats, nil
}
