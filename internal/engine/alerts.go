package engine

import (
	"context"
	"sync"
	"time"

	"github.com/smartfactory/sfdash/internal/logging"
	"github.com/smartfactory/sfdash/internal/model"
)

// AlertSource lists the alerts raised for a user.
type AlertSource interface {
	Alerts(ctx context.Context, userID string) ([]model.Alert, error)
}

// AlertFeed polls the alert endpoint and keeps the most recent distinct
// alerts.
type AlertFeed struct {
	src      AlertSource
	userID   string
	interval time.Duration
	buf      *RingBuffer[model.Alert]

	mu      sync.Mutex
	seen    map[string]struct{}
	lastErr error
	subs    []chan []model.Alert
}

// NewAlertFeed creates a feed keeping up to capacity alerts.
func NewAlertFeed(src AlertSource, userID string, interval time.Duration, capacity int) *AlertFeed {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &AlertFeed{
		src:      src,
		userID:   userID,
		interval: interval,
		buf:      NewRingBuffer[model.Alert](capacity),
		seen:     make(map[string]struct{}),
	}
}

// Run polls until ctx is done.
func (f *AlertFeed) Run(ctx context.Context) {
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()
	f.Poll(ctx)
	for {
		select {
		case <-ticker.C:
			f.Poll(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Poll fetches alerts once and returns how many were new.
func (f *AlertFeed) Poll(ctx context.Context) int {
	alerts, err := f.src.Alerts(ctx, f.userID)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastErr = err
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn().Err(err).Str("user", f.userID).Msg("alert poll failed")
		}
		return 0
	}

	added := 0
	for _, a := range alerts {
		key := a.ID
		if key == "" {
			key = a.Title + "|" + a.Timestamp.String()
		}
		if _, dup := f.seen[key]; dup {
			continue
		}
		f.seen[key] = struct{}{}
		f.buf.Add(a)
		added++
	}
	if added > 0 {
		latest := f.buf.All()
		for _, ch := range f.subs {
			select {
			case <-ch:
			default:
			}
			ch <- latest
		}
	}
	return added
}

// Latest returns the stored alerts, newest first.
func (f *AlertFeed) Latest() []model.Alert {
	all := f.buf.All()
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	return all
}

// Err returns the error of the last poll.
func (f *AlertFeed) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Subscribe returns a channel receiving the stored alerts whenever new ones
// arrive.
func (f *AlertFeed) Subscribe() <-chan []model.Alert {
	ch := make(chan []model.Alert, 1)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, ch)
	return ch
}
