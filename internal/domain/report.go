package domain

// Report is one fact-check report filed against a news article. The
// business key is NewsLink; the remote feed may re-send a report with a
// newer UpdatedAt, which replaces the stored row.
type Report struct {
	ID          int64  `db:"id" json:"-"`
	NewsTitle   string `db:"news_title" json:"news_title"`
	NewsLink    string `db:"news_link" json:"news_link"`
	ReportTitle string `db:"report_title" json:"report_title"`
	ReportLink  string `db:"report_link" json:"report_link"`
	CreatedAt   int64  `db:"created_at" json:"created_at"`
	UpdatedAt   int64  `db:"updated_at" json:"updated_at"`
	DeletedAt   *int64 `db:"deleted_at" json:"deleted_at"`
}

// Deleted reports whether the report has been retracted upstream. A
// retracted report stays in the store as a tombstone so it keeps
// suppressing matches.
func (r *Report) Deleted() bool {
	return r.DeletedAt != nil && *r.DeletedAt != 0
}

// ReadEntry is one news article the user has viewed, keyed by the
// normalized article link.
type ReadEntry struct {
	ID         int64  `db:"id"`
	Title      string `db:"title"`
	Link       string `db:"link"`
	LastSeenAt int64  `db:"last_seen_at"`
}

// Notification is the user-visible alert for a matched (read, report)
// pair. Tag is the normalized news link so the delivery channel can
// collapse repeated alerts for the same article.
type Notification struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	Tag   string `json:"tag"`
	Link  string `json:"link"`
}
