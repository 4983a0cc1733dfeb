package sqlite

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/suite"

	"github.com/yllan/newshelper-safari/internal/domain"
)

type StoreTestSuite struct {
	suite.Suite
	ctx     context.Context
	db      *sqlx.DB
	reports *ReportStore
	history *HistoryStore
}

func (s *StoreTestSuite) SetupTest() {
	s.ctx = context.Background()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := Open(filepath.Join(s.T().TempDir(), "test.db"), logger)
	s.Require().NoError(err)

	s.db = db
	s.reports = NewReportStore(db)
	s.history = NewHistoryStore(db)
}

func (s *StoreTestSuite) TearDownTest() {
	s.NoError(s.db.Close())
}

func TestStoreTestSuite(t *testing.T) {
	suite.Run(t, new(StoreTestSuite))
}

func (s *StoreTestSuite) report(link string, updatedAt int64) *domain.Report {
	return &domain.Report{
		NewsTitle:   "問題新聞",
		NewsLink:    link,
		ReportTitle: "這則新聞有誤",
		ReportLink:  "http://report.example/1",
		CreatedAt:   updatedAt,
		UpdatedAt:   updatedAt,
	}
}

func (s *StoreTestSuite) TestReportUpsert_Insert() {
	wrote, err := s.reports.Upsert(s.ctx, s.report("http://news.example/1", 10))
	s.NoError(err)
	s.True(wrote)

	got, err := s.reports.FindLiveByLink(s.ctx, "http://news.example/1")
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal("問題新聞", got.NewsTitle)
	s.Equal(int64(10), got.UpdatedAt)
}

func (s *StoreTestSuite) TestReportUpsert_IdenticalPayloadIsIdempotent() {
	report := s.report("http://news.example/1", 10)

	wrote, err := s.reports.Upsert(s.ctx, report)
	s.NoError(err)
	s.True(wrote)

	wrote, err = s.reports.Upsert(s.ctx, report)
	s.NoError(err)
	s.False(wrote)

	var count int
	s.NoError(s.db.Get(&count, "SELECT COUNT(*) FROM report WHERE news_link = ?", report.NewsLink))
	s.Equal(1, count)
}

func (s *StoreTestSuite) TestReportUpsert_NewerWins() {
	_, err := s.reports.Upsert(s.ctx, s.report("http://news.example/1", 10))
	s.NoError(err)

	newer := s.report("http://news.example/1", 20)
	newer.ReportTitle = "更正後的回報"
	wrote, err := s.reports.Upsert(s.ctx, newer)
	s.NoError(err)
	s.True(wrote)

	got, err := s.reports.FindLiveByLink(s.ctx, "http://news.example/1")
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal(int64(20), got.UpdatedAt)
	s.Equal("更正後的回報", got.ReportTitle)
}

func (s *StoreTestSuite) TestReportUpsert_StaleUpdateIgnored() {
	_, err := s.reports.Upsert(s.ctx, s.report("http://news.example/1", 20))
	s.NoError(err)

	stale := s.report("http://news.example/1", 10)
	stale.ReportTitle = "舊的回報"
	wrote, err := s.reports.Upsert(s.ctx, stale)
	s.NoError(err)
	s.False(wrote)

	got, err := s.reports.FindLiveByLink(s.ctx, "http://news.example/1")
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal(int64(20), got.UpdatedAt)
	s.Equal("這則新聞有誤", got.ReportTitle)
}

func (s *StoreTestSuite) TestReportUpsert_EmptyLinkRejected() {
	_, err := s.reports.Upsert(s.ctx, s.report("", 10))
	s.ErrorIs(err, domain.ErrInvalidLink)
}

func (s *StoreTestSuite) TestLatestUpdatedAt() {
	latest, err := s.reports.LatestUpdatedAt(s.ctx)
	s.NoError(err)
	s.Equal(int64(0), latest)

	for i, updatedAt := range []int64{5, 12, 9} {
		_, err := s.reports.Upsert(s.ctx, s.report(
			"http://news.example/"+string(rune('a'+i)), updatedAt))
		s.NoError(err)
	}

	latest, err = s.reports.LatestUpdatedAt(s.ctx)
	s.NoError(err)
	s.Equal(int64(12), latest)
}

func (s *StoreTestSuite) TestFindLiveByLink_TombstoneInvisible() {
	deletedAt := int64(30)
	report := s.report("http://news.example/1", 10)
	report.DeletedAt = &deletedAt

	wrote, err := s.reports.Upsert(s.ctx, report)
	s.NoError(err)
	s.True(wrote)

	got, err := s.reports.FindLiveByLink(s.ctx, "http://news.example/1")
	s.NoError(err)
	s.Nil(got)

	// The tombstone row itself is retained.
	var count int
	s.NoError(s.db.Get(&count, "SELECT COUNT(*) FROM report WHERE news_link = ?", report.NewsLink))
	s.Equal(1, count)
}

func (s *StoreTestSuite) TestFindLiveByLink_Missing() {
	got, err := s.reports.FindLiveByLink(s.ctx, "http://news.example/none")
	s.NoError(err)
	s.Nil(got)
}

func (s *StoreTestSuite) TestHistoryUpsert_InPlace() {
	s.NoError(s.history.Upsert(s.ctx, "http://news.example/1", "第一版標題", 100))
	s.NoError(s.history.Upsert(s.ctx, "http://news.example/1", "更新後標題", 200))

	got, err := s.history.FindByLink(s.ctx, "http://news.example/1")
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal("更新後標題", got.Title)
	s.Equal(int64(200), got.LastSeenAt)

	var count int
	s.NoError(s.db.Get(&count, "SELECT COUNT(*) FROM read_news WHERE link = ?", "http://news.example/1"))
	s.Equal(1, count)
}

func (s *StoreTestSuite) TestHistoryUpsert_SeenAtNeverMovesBackwards() {
	s.NoError(s.history.Upsert(s.ctx, "http://news.example/1", "標題", 200))
	s.NoError(s.history.Upsert(s.ctx, "http://news.example/1", "過期觀測", 100))

	got, err := s.history.FindByLink(s.ctx, "http://news.example/1")
	s.NoError(err)
	s.Require().NotNil(got)
	s.Equal(int64(200), got.LastSeenAt)
	s.Equal("標題", got.Title)
}

func (s *StoreTestSuite) TestHistoryUpsert_EmptyLinkRejected() {
	err := s.history.Upsert(s.ctx, "", "標題", 100)
	s.ErrorIs(err, domain.ErrInvalidLink)
}

func (s *StoreTestSuite) TestHistoryFindByLink_Missing() {
	got, err := s.history.FindByLink(s.ctx, "http://news.example/none")
	s.NoError(err)
	s.Nil(got)
}

func (s *StoreTestSuite) TestMigrate_Rerunnable() {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	path := filepath.Join(s.T().TempDir(), "reopen.db")
	db, err := Open(path, logger)
	s.Require().NoError(err)

	store := NewReportStore(db)
	_, err = store.Upsert(s.ctx, s.report("http://news.example/1", 10))
	s.NoError(err)
	s.NoError(db.Close())

	// Reopening must not re-apply migrations or lose data.
	db, err = Open(path, logger)
	s.Require().NoError(err)
	defer db.Close()

	got, err := NewReportStore(db).FindLiveByLink(s.ctx, "http://news.example/1")
	s.NoError(err)
	s.NotNil(got)
}
