package timesvc

import (
	"context"
	"log/slog"
	"time"
)

// DefaultPollInterval is the pause between time fetches.
const DefaultPollInterval = 5 * time.Second

// Fetcher returns the current time from some source.
type Fetcher interface {
	Current(ctx context.Context) (time.Time, error)
}

// Poller fetches the time every Interval and reports it.
type Poller struct {
	Fetcher  Fetcher
	Interval time.Duration
	Logger   *slog.Logger

	// OnTime receives every successful fetch (optional).
	OnTime func(t time.Time)
}

// Run polls until ctx is done, fetching once immediately. Fetch errors are
// logged and polling continues. It returns ctx.Err().
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	logger := p.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		t, err := p.Fetcher.Current(ctx)
		switch {
		case err == nil:
			logger.Info("current time", "utc", t.Format(time.RFC3339Nano))
			if p.OnTime != nil {
				p.OnTime(t)
			}
		case ctx.Err() == nil:
			logger.Warn("time fetch failed", "error", err)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
