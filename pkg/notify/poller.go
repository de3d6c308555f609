package notify

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/servicebay-dev/servicebay/pkg/api"
)

// DefaultInterval is the default polling cadence.
const DefaultInterval = 30 * time.Second

// PollerConfig configures a Poller. Fetch is required.
type PollerConfig struct {
	// Fetch retrieves the current notification list.
	Fetch func(ctx context.Context) ([]api.Notification, error)

	// Handler receives notifications not seen by a previous tick,
	// oldest first. Optional.
	Handler func(fresh []api.Notification)

	// Interval is the polling cadence. Default: DefaultInterval.
	Interval time.Duration

	// Logger receives fetch failures. Default: slog.Default().
	Logger *slog.Logger
}

// Poller is a cancellable repeating fetch of the notification list.
type Poller struct {
	fetch    func(ctx context.Context) ([]api.Notification, error)
	handler  func(fresh []api.Notification)
	interval time.Duration
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	seen    map[int64]struct{}
	started bool
}

// NewPoller creates a poller; call Start to begin polling.
func NewPoller(cfg PollerConfig) (*Poller, error) {
	if cfg.Fetch == nil {
		return nil, errors.New("notify: config missing Fetch")
	}
	p := &Poller{
		fetch:    cfg.Fetch,
		handler:  cfg.Handler,
		interval: cfg.Interval,
		logger:   cfg.Logger,
		seen:     make(map[int64]struct{}),
	}
	if p.interval <= 0 {
		p.interval = DefaultInterval
	}
	if p.logger == nil {
		p.logger = slog.Default()
	}
	return p, nil
}

// Start begins polling: one immediate fetch, then one per interval.
// Starting an already running poller is an error.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started {
		return errors.New("notify: poller already started")
	}
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.started = true
	go p.loop(ctx)
	return nil
}

// Stop cancels polling. Idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.cancel = nil
	p.started = false
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (p *Poller) loop(ctx context.Context) {
	p.tick(ctx)
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	notifications, err := p.fetch(ctx)
	if err != nil {
		if ctx.Err() == nil {
			p.logger.Warn("notification poll failed", "error", err)
		}
		return
	}

	p.mu.Lock()
	var fresh []api.Notification
	// The endpoint returns newest first; collect unseen ones and
	// deliver them oldest first so handlers see arrival order.
	for i := len(notifications) - 1; i >= 0; i-- {
		n := notifications[i]
		if _, ok := p.seen[n.ID]; ok {
			continue
		}
		p.seen[n.ID] = struct{}{}
		fresh = append(fresh, n)
	}
	handler := p.handler
	p.mu.Unlock()

	if handler != nil && len(fresh) > 0 {
		handler(fresh)
	}
}
