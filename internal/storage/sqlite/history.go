package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/yllan/newshelper-safari/internal/domain"
)

type HistoryStore struct {
	db *sqlx.DB
}

func NewHistoryStore(db *sqlx.DB) *HistoryStore {
	return &HistoryStore{db: db}
}

// Upsert records that the article at link was seen at seenAt, keeping at
// most one row per link. last_seen_at never moves backwards even if
// callers race.
func (s *HistoryStore) Upsert(ctx context.Context, link, title string, seenAt int64) error {
	if link == "" {
		return fmt.Errorf("upsert read entry: %w", domain.ErrInvalidLink)
	}

	query := `
		INSERT INTO read_news (title, link, last_seen_at)
		VALUES (?, ?, ?)
		ON CONFLICT (link) DO UPDATE SET
			title = excluded.title,
			last_seen_at = excluded.last_seen_at
		WHERE excluded.last_seen_at >= read_news.last_seen_at`

	if _, err := s.db.ExecContext(ctx, query, title, link, seenAt); err != nil {
		return fmt.Errorf("upsert read entry: %w", err)
	}
	return nil
}

// FindByLink returns the read entry for an exact link match, or
// (nil, nil) when the article was never seen.
func (s *HistoryStore) FindByLink(ctx context.Context, link string) (*domain.ReadEntry, error) {
	var entry domain.ReadEntry
	query := "SELECT id, title, link, last_seen_at FROM read_news WHERE link = ? LIMIT 1"

	err := s.db.GetContext(ctx, &entry, query, link)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find read entry by link: %w", err)
	}
	return &entry, nil
}
