// Package notifier delivers user-visible alerts for matched reports.
// Delivery is best effort: a failing channel degrades to the fallback
// and never fails the sync or match flow.
package notifier

import (
	"context"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/yllan/newshelper-safari/internal/domain"
)

// Channel is the environment-supplied delivery capability. The native
// variant hands the alert to the presentation layer; the fallback
// variant is used when the native one is unavailable.
type Channel interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

// Notifier suppresses repeated alerts for the same article and pushes
// the rest through a delivery channel. The matcher may be invoked more
// than once for the same (article, report) pair, so dedup lives here.
type Notifier struct {
	channel  Channel
	fallback Channel
	seen     *gocache.Cache
	logger   *slog.Logger
}

// New creates a notifier. channel may be nil, in which case every alert
// goes to the fallback. Alerts with a tag seen within dedupWindow are
// dropped.
func New(channel, fallback Channel, dedupWindow time.Duration, logger *slog.Logger) *Notifier {
	return &Notifier{
		channel:  channel,
		fallback: fallback,
		seen:     gocache.New(dedupWindow, 10*time.Minute),
		logger:   logger.With("component", "notifier"),
	}
}

func (n *Notifier) Notify(ctx context.Context, notification domain.Notification) {
	if _, dup := n.seen.Get(notification.Tag); dup {
		n.logger.Debug("suppressing duplicate alert", "tag", notification.Tag)
		return
	}

	ch := n.channel
	if ch == nil {
		ch = n.fallback
	}
	if ch == nil {
		return
	}

	if err := ch.Deliver(ctx, notification); err != nil {
		n.logger.Warn("alert delivery failed", "tag", notification.Tag, "error", err)
		if n.fallback == nil || ch == n.fallback {
			return
		}
		if err := n.fallback.Deliver(ctx, notification); err != nil {
			n.logger.Warn("fallback delivery failed", "tag", notification.Tag, "error", err)
			return
		}
	}

	// The tag is consumed only once something was actually delivered;
	// a fully failed attempt stays eligible for the next match.
	n.seen.SetDefault(notification.Tag, struct{}{})
}
