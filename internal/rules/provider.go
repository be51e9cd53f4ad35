package rules

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dtroode/appblock/internal/logger"
)

// Provider holds the current rules and refreshes them from a source.
// A failed refresh keeps the previous rules.
type Provider struct {
	source Source
	logger *logger.Logger

	current atomic.Pointer[Rules]

	mu      sync.Mutex
	version string
}

// NewProvider starts with initial until the first successful refresh.
// source may be nil for static rules.
func NewProvider(source Source, initial Rules, logger *logger.Logger) *Provider {
	p := &Provider{
		source: source,
		logger: logger,
	}
	p.current.Store(&initial)

	return p
}

// Current returns the rules in effect.
func (p *Provider) Current() Rules {
	return *p.current.Load()
}

// Refresh reloads the rules when the source version changed.
func (p *Provider) Refresh(ctx context.Context) error {
	if p.source == nil {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	version, err := p.source.Version(ctx)
	if err != nil {
		return fmt.Errorf("failed to get rules version: %w", err)
	}
	if version != "" && version == p.version {
		return nil
	}

	data, err := p.source.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load rules: %w", err)
	}

	r, err := Parse(data)
	if err != nil {
		return err
	}

	p.current.Store(&r)
	p.version = version
	p.logger.Info("Rules provider: rules updated", "target", r.TargetPackage, "version", version)

	return nil
}

// Run refreshes until ctx is done: on every change of a watched source,
// otherwise on every interval. A watched source that can not be watched
// is polled.
func (p *Provider) Run(ctx context.Context, interval time.Duration) {
	if p.source == nil {
		return
	}

	if watched, ok := p.source.(WatchedSource); ok {
		changes, err := watched.Changes(ctx)
		if err == nil {
			p.follow(ctx, changes)
			return
		}
		p.logger.Warn("Rules provider: failed to watch source, polling instead", "error", err.Error())
	}

	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Refresh(ctx); err != nil {
				p.logger.Warn("Rules provider: refresh failed, keeping previous rules", "error", err.Error())
			}
		}
	}
}

func (p *Provider) follow(ctx context.Context, changes <-chan struct{}) {
	for range changes {
		if err := p.Refresh(ctx); err != nil {
			p.logger.Warn("Rules provider: refresh failed, keeping previous rules", "error", err.Error())
		}
	}
}
