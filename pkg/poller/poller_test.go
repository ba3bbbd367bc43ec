package poller

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/pricing"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/telemetry/metrics"
)

// fakeProvider is a scripted Provider for poller tests.
type fakeProvider struct {
	id      providers.Identity
	record  *providers.UsageRecord
	err     error
	fetches atomic.Int64
	block   chan struct{} // when non-nil, FetchUsage blocks until closed
}

func (f *fakeProvider) FetchUsage(ctx context.Context) (*providers.UsageRecord, error) {
	f.fetches.Add(1)
	if f.block != nil {
		select {
		case <-f.block:
		case <-ctx.Done():
			return nil, &providers.NetworkError{Provider: f.id.Provider, Message: "timeout", Cause: ctx.Err()}
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	rec := *f.record
	return &rec, nil
}

func (f *fakeProvider) Identity() providers.Identity { return f.id }
func (f *fakeProvider) Close() error                 { return nil }

func newTestSetup(t *testing.T, provs ...providers.Provider) (*Poller, *metrics.Registry) {
	t.Helper()

	identities := make([]providers.Identity, 0, len(provs))
	for _, p := range provs {
		identities = append(identities, p.Identity())
	}

	registry, err := metrics.New(prometheus.NewRegistry(), identities)
	if err != nil {
		t.Fatalf("failed to create registry: %v", err)
	}

	p := New(Config{Interval: time.Minute, FetchTimeout: time.Second}, provs, pricing.NewTable(), registry)
	return p, registry
}

// runTick executes one synchronous polling cycle.
func runTick(p *Poller, ctx context.Context) {
	p.pollAll(ctx)
	p.wg.Wait()
}

func gaugeValue(t *testing.T, registry *metrics.Registry, name string, labels map[string]string) (float64, bool) {
	t.Helper()
	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != name {
			continue
		}
	metric:
		for _, m := range fam.GetMetric() {
			for key, want := range labels {
				found := false
				for _, lp := range m.GetLabel() {
					if lp.GetName() == key && lp.GetValue() == want {
						found = true
						break
					}
				}
				if !found {
					continue metric
				}
			}
			if m.GetGauge() != nil {
				return m.GetGauge().GetValue(), true
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue(), true
			}
		}
	}
	return 0, false
}

func TestPoller_MixedFailureTick(t *testing.T) {
	failing := &fakeProvider{
		id:  providers.Identity{Provider: "openai", Model: "gpt-4"},
		err: &providers.NetworkError{Provider: "openai", Message: "connection refused"},
	}
	healthy1 := &fakeProvider{
		id:     providers.Identity{Provider: "anthropic", Model: "claude-3-opus"},
		record: &providers.UsageRecord{PromptTokens: 1000, CompletionTokens: 1000, RequestCount: 5},
	}
	healthy2 := &fakeProvider{
		id:     providers.Identity{Provider: "bedrock", Model: "anthropic.claude-v2"},
		record: &providers.UsageRecord{},
	}

	p, registry := newTestSetup(t, failing, healthy1, healthy2)
	runTick(p, context.Background())

	// The healthy providers published; the failing one has no series at all
	// on its first-ever tick.
	if _, ok := gaugeValue(t, registry, "llm_cost_usd", map[string]string{"provider": "anthropic"}); !ok {
		t.Error("expected anthropic cost series after successful tick")
	}
	if _, ok := gaugeValue(t, registry, "llm_cost_usd", map[string]string{"provider": "bedrock"}); !ok {
		t.Error("expected bedrock cost series after successful tick")
	}
	if _, ok := gaugeValue(t, registry, "llm_cost_usd", map[string]string{"provider": "openai"}); ok {
		t.Error("expected no openai series after failed first tick")
	}

	if v, _ := gaugeValue(t, registry, "llm_last_poll_success", map[string]string{"provider": "openai"}); v != 0 {
		t.Errorf("expected poll success 0 for openai, got %f", v)
	}
	if v, _ := gaugeValue(t, registry, "llm_poll_errors_total", map[string]string{"provider": "openai", "reason": "network"}); v != 1 {
		t.Errorf("expected 1 network poll error for openai, got %f", v)
	}
}

func TestPoller_FailureLeavesPriorValues(t *testing.T) {
	prov := &fakeProvider{
		id:     providers.Identity{Provider: "openai", Model: "gpt-4"},
		record: &providers.UsageRecord{CostUSD: 50.0, RequestCount: 10},
	}

	p, registry := newTestSetup(t, prov)
	runTick(p, context.Background())

	if v, _ := gaugeValue(t, registry, "llm_cost_usd", map[string]string{"provider": "openai"}); v != 50.0 {
		t.Fatalf("expected cost 50.0 after first tick, got %f", v)
	}

	// Subsequent failed tick: previously published values stay visible.
	prov.err = &providers.AuthError{Provider: "openai", Message: "key revoked"}
	runTick(p, context.Background())

	if v, _ := gaugeValue(t, registry, "llm_cost_usd", map[string]string{"provider": "openai"}); v != 50.0 {
		t.Errorf("expected prior cost 50.0 after failed tick, got %f", v)
	}
	if v, _ := gaugeValue(t, registry, "llm_requests", map[string]string{"provider": "openai"}); v != 10 {
		t.Errorf("expected prior request count 10 after failed tick, got %f", v)
	}
	if v, _ := gaugeValue(t, registry, "llm_last_poll_success", map[string]string{"provider": "openai"}); v != 0 {
		t.Errorf("expected poll success 0 after failed tick, got %f", v)
	}
}

func TestPoller_DerivesCostFromTokens(t *testing.T) {
	// No direct cost reported: the pricing table fills it in.
	prov := &fakeProvider{
		id:     providers.Identity{Provider: "anthropic", Model: "gpt-4"},
		record: &providers.UsageRecord{PromptTokens: 1000, CompletionTokens: 1000},
	}

	p, registry := newTestSetup(t, prov)
	runTick(p, context.Background())

	if v, _ := gaugeValue(t, registry, "llm_cost_usd", map[string]string{"provider": "anthropic"}); v != 0.09 {
		t.Errorf("expected derived cost 0.09, got %f", v)
	}
}

func TestPoller_DirectCostIsAuthoritative(t *testing.T) {
	// Direct cost present alongside token counts: the direct figure wins.
	prov := &fakeProvider{
		id:     providers.Identity{Provider: "openai", Model: "gpt-4"},
		record: &providers.UsageRecord{CostUSD: 123.0, PromptTokens: 1000, CompletionTokens: 1000},
	}

	p, registry := newTestSetup(t, prov)
	runTick(p, context.Background())

	if v, _ := gaugeValue(t, registry, "llm_cost_usd", map[string]string{"provider": "openai"}); v != 123.0 {
		t.Errorf("expected direct cost 123.0, got %f", v)
	}
}

func TestPoller_UnknownModelCostsZero(t *testing.T) {
	prov := &fakeProvider{
		id:     providers.Identity{Provider: "anthropic", Model: "unlisted-model"},
		record: &providers.UsageRecord{PromptTokens: 500000, CompletionTokens: 500000},
	}

	p, registry := newTestSetup(t, prov)
	runTick(p, context.Background())

	v, ok := gaugeValue(t, registry, "llm_cost_usd", map[string]string{"provider": "anthropic"})
	if !ok {
		t.Fatal("expected cost series to exist")
	}
	if v != 0 {
		t.Errorf("expected zero cost for unknown model, got %f", v)
	}
}

func TestPoller_SkipsProviderStillInFlight(t *testing.T) {
	block := make(chan struct{})
	slow := &fakeProvider{
		id:     providers.Identity{Provider: "openai", Model: "gpt-4"},
		record: &providers.UsageRecord{CostUSD: 1.0},
		block:  block,
	}

	p, _ := newTestSetup(t, slow)
	p.config.FetchTimeout = 5 * time.Second

	ctx := context.Background()
	p.pollAll(ctx)

	// Second tick while the first fetch is still blocked: no new fetch.
	p.pollAll(ctx)

	close(block)
	p.wg.Wait()

	if got := slow.fetches.Load(); got != 1 {
		t.Errorf("expected 1 fetch while in flight, got %d", got)
	}

	// After the fetch lands the provider is schedulable again.
	p.pollAll(ctx)
	p.wg.Wait()
	if got := slow.fetches.Load(); got != 2 {
		t.Errorf("expected 2 fetches after completion, got %d", got)
	}
}

func TestPoller_StartStop(t *testing.T) {
	prov := &fakeProvider{
		id:     providers.Identity{Provider: "openai", Model: "gpt-4"},
		record: &providers.UsageRecord{CostUSD: 1.0},
	}

	p, registry := newTestSetup(t, prov)

	if err := p.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := p.Start(context.Background()); err == nil {
		t.Error("expected second Start to fail")
	}

	p.Stop()
	// Stop twice is a no-op.
	p.Stop()

	// The immediate startup poll published data.
	if _, ok := gaugeValue(t, registry, "llm_cost_usd", map[string]string{"provider": "openai"}); !ok {
		t.Error("expected startup poll to publish data")
	}
}
