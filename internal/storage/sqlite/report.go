package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yllan/newshelper-safari/internal/domain"
)

type ReportStore struct {
	db *sqlx.DB
}

func NewReportStore(db *sqlx.DB) *ReportStore {
	return &ReportStore{db: db}
}

// Upsert inserts or replaces the report keyed by news_link. A stored row
// is only replaced by a payload with a strictly newer updated_at, so the
// outcome does not depend on arrival order and repeated identical calls
// are no-ops. The returned bool reports whether a row was actually
// written.
func (s *ReportStore) Upsert(ctx context.Context, report *domain.Report) (bool, error) {
	if report.NewsLink == "" {
		return false, fmt.Errorf("upsert report: %w", domain.ErrInvalidLink)
	}

	query := `
		INSERT INTO report (
			news_title, news_link, report_title, report_link,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (news_link) DO UPDATE SET
			news_title = excluded.news_title,
			report_title = excluded.report_title,
			report_link = excluded.report_link,
			created_at = excluded.created_at,
			updated_at = excluded.updated_at,
			deleted_at = excluded.deleted_at
		WHERE excluded.updated_at > report.updated_at`

	res, err := s.db.ExecContext(ctx, query,
		report.NewsTitle,
		report.NewsLink,
		report.ReportTitle,
		report.ReportLink,
		report.CreatedAt,
		report.UpdatedAt,
		report.DeletedAt,
	)
	if err != nil {
		return false, fmt.Errorf("upsert report: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("upsert report: rows affected: %w", err)
	}

	return affected > 0, nil
}

// FindLiveByLink returns the non-retracted report for an exact link
// match, or (nil, nil). A tombstoned row is treated as absent.
func (s *ReportStore) FindLiveByLink(ctx context.Context, link string) (*domain.Report, error) {
	var report domain.Report
	query := `
		SELECT id, news_title, news_link, report_title, report_link,
		       created_at, updated_at, deleted_at
		FROM report
		WHERE news_link = ? AND (deleted_at IS NULL OR deleted_at = 0)
		LIMIT 1`

	err := s.db.GetContext(ctx, &report, query, link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find report by link: %w", err)
	}
	return &report, nil
}

// LatestUpdatedAt returns the maximum updated_at over all stored
// reports, or 0 when the table is empty. The sync cursor is derived
// from this, never checkpointed separately.
func (s *ReportStore) LatestUpdatedAt(ctx context.Context) (int64, error) {
	var latest int64
	err := s.db.GetContext(ctx, &latest, "SELECT COALESCE(MAX(updated_at), 0) FROM report")
	if err != nil {
		return 0, fmt.Errorf("latest report updated_at: %w", err)
	}
	return latest, nil
}
