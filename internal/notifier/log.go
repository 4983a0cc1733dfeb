package notifier

import (
	"context"
	"log/slog"

	"github.com/yllan/newshelper-safari/internal/domain"
)

// LogChannel is the fallback delivery channel: the alert lands in the
// daemon log instead of a native notification.
type LogChannel struct {
	logger *slog.Logger
}

func NewLogChannel(logger *slog.Logger) *LogChannel {
	return &LogChannel{logger: logger}
}

func (c *LogChannel) Deliver(_ context.Context, n domain.Notification) error {
	c.logger.Info("alert",
		"title", n.Title,
		"body", n.Body,
		"tag", n.Tag,
		"link", n.Link,
	)
	return nil
}
