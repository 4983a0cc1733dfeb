package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/yllan/newshelper-safari/internal/domain"
	"github.com/yllan/newshelper-safari/internal/normalize"
)

// Matcher decides when a (read article, report) pair owes the user an
// alert. It is reached from two directions: a freshly committed report
// (Evaluate) and a freshly observed view (CheckOnView). Both can fire
// for the same pair; collapsing duplicates is the notifier's job.
type Matcher struct {
	history   HistoryStore
	reports   ReportStore
	notifier  Notifier
	normalize normalize.Func
	now       func() time.Time
	logger    *slog.Logger
}

func NewMatcher(
	history HistoryStore,
	reports ReportStore,
	notifier Notifier,
	norm normalize.Func,
	logger *slog.Logger,
) *Matcher {
	return &Matcher{
		history:   history,
		reports:   reports,
		notifier:  notifier,
		normalize: norm,
		now:       time.Now,
		logger:    logger.With("component", "matcher"),
	}
}

// Evaluate checks a committed report against the read history. Retracted
// reports never notify, even when a matching read entry exists. Returns
// whether a notification was handed to the notifier.
func (m *Matcher) Evaluate(ctx context.Context, report *domain.Report) (bool, error) {
	if report.Deleted() {
		return false, nil
	}

	entry, err := m.history.FindByLink(ctx, report.NewsLink)
	if err != nil {
		return false, fmt.Errorf("evaluate report: %w", err)
	}
	if entry == nil {
		return false, nil
	}

	m.notifier.Notify(ctx, m.buildNotification(entry, report))
	return true, nil
}

// CheckOnView records a view and immediately checks it against stored
// reports, so a report that arrived before the view still surfaces. The
// matched live report, if any, is returned for inline annotation.
func (m *Matcher) CheckOnView(ctx context.Context, link, title string) (*domain.Report, error) {
	link = m.normalize(link)
	if link == "" {
		return nil, domain.ErrInvalidLink
	}

	seenAt := m.now().Unix()
	if err := m.history.Upsert(ctx, link, title, seenAt); err != nil {
		return nil, fmt.Errorf("record view: %w", err)
	}

	report, err := m.reports.FindLiveByLink(ctx, link)
	if err != nil {
		return nil, fmt.Errorf("check view: %w", err)
	}
	if report == nil {
		return nil, nil
	}

	entry := &domain.ReadEntry{Title: title, Link: link, LastSeenAt: seenAt}
	m.notifier.Notify(ctx, m.buildNotification(entry, report))
	return report, nil
}

// HasLiveReport is the synchronous lookup for the presentation layer: it
// never writes history and never notifies.
func (m *Matcher) HasLiveReport(ctx context.Context, link string) (*domain.Report, error) {
	link = m.normalize(link)
	if link == "" {
		return nil, domain.ErrInvalidLink
	}
	return m.reports.FindLiveByLink(ctx, link)
}

func (m *Matcher) buildNotification(entry *domain.ReadEntry, report *domain.Report) domain.Notification {
	return domain.Notification{
		Title: "新聞小幫手提醒您",
		Body: fmt.Sprintf("您於%s看的新聞「%s」被人回報有錯誤：%s",
			relativeTime(m.now().Unix()-entry.LastSeenAt), entry.Title, report.ReportTitle),
		Tag:  report.NewsLink,
		Link: report.ReportLink,
	}
}

func relativeTime(delta int64) string {
	if delta < 0 {
		delta = 0
	}
	switch {
	case delta < 60:
		return fmt.Sprintf("%d 秒前", delta)
	case delta < 60*60:
		return fmt.Sprintf("%d 分鐘前", delta/60)
	case delta < 60*60*24:
		return fmt.Sprintf("%d 小時前", delta/(60*60))
	default:
		return fmt.Sprintf("%d 天前", delta/(60*60*24))
	}
}
