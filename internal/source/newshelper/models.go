package newshelper

import "encoding/json"

// APIResponse is the report feed response. Records are decoded
// individually so one malformed record does not discard the batch.
type APIResponse struct {
	Data []json.RawMessage `json:"data"`
}

// ReportRecord is one report payload in the feed.
type ReportRecord struct {
	NewsTitle   string `json:"news_title"`
	NewsLink    string `json:"news_link"`
	ReportTitle string `json:"report_title"`
	ReportLink  string `json:"report_link"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
	DeletedAt   *int64 `json:"deleted_at"`
}
