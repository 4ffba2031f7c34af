package github

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mrbonezy/omcc-statusline/internal/cache"
	"github.com/mrbonezy/omcc-statusline/internal/fetch"
	"github.com/mrbonezy/omcc-statusline/internal/runner"
)

const (
	AvailabilityKey        = "gh-available"
	DefaultAvailabilityTTL = 30 * time.Minute
	DefaultTimeout         = 15 * time.Second
)

type Availability string

const (
	AvailabilityUnknown         Availability = ""
	AvailabilityOK              Availability = "ok"
	AvailabilityToolMissing     Availability = "no-gh"
	AvailabilityUnauthenticated Availability = "no-auth"
)

// Diagnostic is the label shown in place of review dots.
func (a Availability) Diagnostic() string {
	switch a {
	case AvailabilityToolMissing:
		return "gh not installed"
	case AvailabilityUnauthenticated:
		return "gh auth login"
	default:
		return ""
	}
}

// Err maps a failed probe onto the shared error taxonomy.
func (a Availability) Err() error {
	switch a {
	case AvailabilityToolMissing:
		return fetch.ErrToolUnavailable
	case AvailabilityUnauthenticated:
		return fetch.ErrUnauthenticated
	default:
		return nil
	}
}

func parseAvailability(s string) Availability {
	switch Availability(strings.TrimSpace(s)) {
	case AvailabilityOK:
		return AvailabilityOK
	case AvailabilityToolMissing:
		return AvailabilityToolMissing
	case AvailabilityUnauthenticated:
		return AvailabilityUnauthenticated
	default:
		return AvailabilityUnknown
	}
}

// Prober answers whether gh is installed and authenticated. The answer is
// persisted in the cache root, and within one process the probe runs once.
type Prober struct {
	run     runner.Runner
	store   *cache.Store
	ttl     time.Duration
	timeout time.Duration
	logger  *slog.Logger

	mu    sync.Mutex
	state Availability
}

func NewProber(run runner.Runner, store *cache.Store, ttl, timeout time.Duration, logger *slog.Logger) *Prober {
	if ttl <= 0 {
		ttl = DefaultAvailabilityTTL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Prober{run: run, store: store, ttl: ttl, timeout: timeout, logger: logger}
}

func (p *Prober) Check(ctx context.Context) Availability {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != AvailabilityUnknown {
		return p.state
	}

	if p.store.IsFresh(AvailabilityKey, p.ttl) {
		if text, ok := p.store.ReadText(AvailabilityKey).Value(); ok {
			if cached := parseAvailability(text); cached != AvailabilityUnknown {
				p.state = cached
				return cached
			}
		}
	}

	p.state = p.probe(ctx)
	if err := p.store.WriteText(AvailabilityKey, string(p.state)); err != nil {
		p.logger.Debug("write availability marker", "err", err)
	}
	return p.state
}

func (p *Prober) probe(ctx context.Context) Availability {
	if _, err := p.run.LookPath("gh"); err != nil {
		p.logger.Debug("gh lookup failed", "err", err)
		return AvailabilityToolMissing
	}
	res := p.run.Run(ctx, runner.Command{Name: "gh", Args: []string{"auth", "status"}, Timeout: p.timeout})
	if !res.OK() {
		err := res.Err()
		p.logger.Debug("gh auth status failed", "err", err)
		if errors.Is(err, fetch.ErrToolUnavailable) {
			return AvailabilityToolMissing
		}
		return AvailabilityUnauthenticated
	}
	return AvailabilityOK
}
