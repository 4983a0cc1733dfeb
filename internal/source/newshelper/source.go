// Package newshelper fetches fact-check reports from the newshelper
// feed. The feed takes a `time` query parameter and returns every report
// updated strictly after it.
package newshelper

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/yllan/newshelper-safari/internal/domain"
	"github.com/yllan/newshelper-safari/internal/normalize"
)

// Config holds feed client configuration.
type Config struct {
	BaseURL        string
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source implements service.Source against the newshelper report feed.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	normalize      normalize.Func
	logger         *slog.Logger
}

// New creates a feed client. Report links are canonicalized with norm
// before they leave this package, so the store only ever sees
// normalized keys.
func New(cfg Config, norm normalize.Func, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		normalize:      norm,
		logger:         logger.With("source", "newshelper"),
	}
}

// FetchReports fetches every report updated after since (unix seconds).
// An empty feed returns an empty slice and no error.
func (s *Source) FetchReports(ctx context.Context, since int64) ([]domain.Report, error) {
	url := fmt.Sprintf("%s?time=%d", s.baseURL, since)

	var resp *APIResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doRequest(ctx, url)
		if err == nil {
			return s.transform(resp), nil
		}

		if attempt == s.maxAttempts {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("feed request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

func (s *Source) doRequest(ctx context.Context, url string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "NewsHelper/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	}

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	return &apiResp, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

// transform decodes and normalizes the raw records. Records that do not
// decode or that lack a usable news link are skipped and logged; the
// rest of the batch survives.
func (s *Source) transform(resp *APIResponse) []domain.Report {
	reports := make([]domain.Report, 0, len(resp.Data))

	for i, raw := range resp.Data {
		var rec ReportRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			s.logger.Warn("skipping malformed feed record", "index", i, "error", err)
			continue
		}

		link := s.normalize(rec.NewsLink)
		if link == "" {
			s.logger.Warn("skipping feed record without news link", "index", i)
			continue
		}

		reports = append(reports, domain.Report{
			NewsTitle:   rec.NewsTitle,
			NewsLink:    link,
			ReportTitle: rec.ReportTitle,
			ReportLink:  rec.ReportLink,
			CreatedAt:   rec.CreatedAt,
			UpdatedAt:   rec.UpdatedAt,
			DeletedAt:   rec.DeletedAt,
		})
	}

	return reports
}
