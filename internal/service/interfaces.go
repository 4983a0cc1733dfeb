package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"github.com/yllan/newshelper-safari/internal/domain"
)

// HistoryStore persists which articles the user has read.
type HistoryStore interface {
	Upsert(ctx context.Context, link, title string, seenAt int64) error
	FindByLink(ctx context.Context, link string) (*domain.ReadEntry, error)
}

// ReportStore persists fact-check reports. Upsert reports whether a row
// was actually written (inserted or replaced by a newer payload).
type ReportStore interface {
	Upsert(ctx context.Context, report *domain.Report) (bool, error)
	FindLiveByLink(ctx context.Context, link string) (*domain.Report, error)
	LatestUpdatedAt(ctx context.Context) (int64, error)
}

// Source fetches reports updated after the given unix-seconds cursor.
type Source interface {
	FetchReports(ctx context.Context, since int64) ([]domain.Report, error)
}

// Notifier delivers a user-visible alert. Delivery is best effort and
// must never fail the caller; dedup by Notification.Tag happens here,
// not in the matcher.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification)
}

// Evaluator decides whether a committed report owes the user an alert.
type Evaluator interface {
	Evaluate(ctx context.Context, report *domain.Report) (bool, error)
}
