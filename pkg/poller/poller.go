package poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/pricing"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/telemetry/metrics"
)

// DefaultInterval is the default polling period.
const DefaultInterval = 5 * time.Minute

// Config contains the poller configuration.
type Config struct {
	// Interval is the fixed tick period (defaults to five minutes).
	// Ticks fire on a fixed schedule regardless of how long fetches take.
	Interval time.Duration

	// FetchTimeout bounds each provider call within a tick.
	FetchTimeout time.Duration
}

// Poller drives the polling cycle: each tick it fetches every configured
// provider concurrently, prices the results, and merges them into the
// metrics registry. One provider's failure never blocks or corrupts
// another: errors are caught at the provider boundary, counted, and the
// provider is simply skipped until the next tick.
type Poller struct {
	config    Config
	providers []providers.Provider
	pricing   *pricing.Table
	metrics   *metrics.Registry

	cron   *cron.Cron
	logger *slog.Logger

	// inFlight guards against overlapping fetches per provider: if a call
	// from a previous tick is still running, the new tick skips that
	// provider and the overrunning call applies its result on arrival.
	inFlight map[string]*atomic.Bool
	wg       sync.WaitGroup

	mu      sync.Mutex
	running bool
}

// New creates a poller over the given provider set.
func New(config Config, provs []providers.Provider, table *pricing.Table, registry *metrics.Registry) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if config.FetchTimeout <= 0 || config.FetchTimeout > config.Interval {
		config.FetchTimeout = config.Interval
	}

	inFlight := make(map[string]*atomic.Bool, len(provs))
	for _, prov := range provs {
		inFlight[prov.Identity().Provider] = &atomic.Bool{}
	}

	return &Poller{
		config:    config,
		providers: provs,
		pricing:   table,
		metrics:   registry,
		cron:      cron.New(),
		logger:    slog.Default().With("component", "poller"),
		inFlight:  inFlight,
	}
}

// Start runs one immediate poll and then begins the fixed-interval
// schedule. The loop runs until Stop is called; it never terminates on
// provider failures.
func (p *Poller) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return fmt.Errorf("poller is already running")
	}

	schedule := fmt.Sprintf("@every %s", p.config.Interval)
	if _, err := p.cron.AddFunc(schedule, func() {
		p.pollAll(ctx)
	}); err != nil {
		return fmt.Errorf("failed to schedule polling: %w", err)
	}

	p.logger.Info("polling started",
		"interval", p.config.Interval,
		"fetch_timeout", p.config.FetchTimeout,
		"providers", len(p.providers),
	)

	// First poll immediately so the endpoint has data before the first
	// full interval elapses.
	p.pollAll(ctx)

	p.cron.Start()
	p.running = true
	return nil
}

// Stop halts the schedule and waits for in-flight fetches to finish.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}

	cronCtx := p.cron.Stop()
	<-cronCtx.Done()
	p.wg.Wait()
	p.running = false

	p.logger.Info("polling stopped")
}

// pollAll launches one fetch per provider. Fetches within a tick are
// independent and run concurrently; each writes disjoint registry keys.
func (p *Poller) pollAll(ctx context.Context) {
	for _, prov := range p.providers {
		name := prov.Identity().Provider

		flag := p.inFlight[name]
		if !flag.CompareAndSwap(false, true) {
			p.logger.Warn("previous fetch still in flight, skipping this tick",
				"provider", name,
			)
			continue
		}

		p.wg.Add(1)
		go func(prov providers.Provider, flag *atomic.Bool) {
			defer p.wg.Done()
			defer flag.Store(false)
			p.pollOne(ctx, prov)
		}(prov, flag)
	}
}

// pollOne performs a single provider fetch and merges the result.
// On failure the provider's previously published gauges are left
// untouched; the next tick is the retry opportunity.
func (p *Poller) pollOne(ctx context.Context, prov providers.Provider) {
	id := prov.Identity()

	fetchCtx, cancel := context.WithTimeout(ctx, p.config.FetchTimeout)
	defer cancel()

	start := time.Now()
	record, err := prov.FetchUsage(fetchCtx)
	if err != nil {
		reason := classify(err)
		p.logger.Warn("provider poll failed",
			"provider", id.Provider,
			"model", id.Model,
			"reason", reason,
			"elapsed", time.Since(start),
			"error", err,
		)
		p.metrics.RecordPollError(id.Provider, reason)
		p.metrics.MarkPollSuccess(id.Provider, false)
		return
	}

	priced := p.price(id, record)
	if err := p.metrics.Update(id, priced); err != nil {
		p.logger.Error("failed to publish usage",
			"provider", id.Provider,
			"error", err,
		)
		p.metrics.MarkPollSuccess(id.Provider, false)
		return
	}
	p.metrics.MarkPollSuccess(id.Provider, true)

	p.logger.Debug("provider poll succeeded",
		"provider", id.Provider,
		"model", id.Model,
		"cost_usd", priced.CostUSD,
		"elapsed", time.Since(start),
	)
}

// price fills in a derived cost when the provider reported none. A direct
// cost is authoritative: the token-based figure is not even computed then.
func (p *Poller) price(id providers.Identity, record *providers.UsageRecord) *providers.UsageRecord {
	if record.CostUSD > 0 {
		return record
	}

	priced := *record
	priced.CostUSD = p.pricing.Cost(id.Model, record.PromptTokens, record.CompletionTokens)
	return &priced
}

// classify maps a fetch error onto its taxonomy class for logs and the
// poll-error counter.
func classify(err error) string {
	var (
		netErr    *providers.NetworkError
		authErr   *providers.AuthError
		decodeErr *providers.DecodeError
		cfgErr    *providers.ConfigError
	)
	switch {
	case errors.As(err, &authErr):
		return "auth"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &cfgErr):
		return "config"
	case errors.As(err, &netErr):
		return "network"
	case errors.Is(err, context.DeadlineExceeded):
		return "network"
	default:
		return "internal"
	}
}
