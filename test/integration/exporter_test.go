//go:build integration

package integration

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/teaglebuilt/llm-cost-exporter/pkg/poller"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/pricing"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers/anthropic"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/providers/openai"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/server"
	"github.com/teaglebuilt/llm-cost-exporter/pkg/telemetry/metrics"
)

// TestExporterEndToEnd wires mocked provider APIs through the poller into
// the metrics endpoint and checks the scraped exposition.
func TestExporterEndToEnd(t *testing.T) {
	openaiAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/usage":
			io.WriteString(w, `{"total_usage": 1250.0}`)
		case "/v1/dashboard/billing/subscription":
			io.WriteString(w, `{"hard_limit_usd": 100.0, "has_payment_method": true}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer openaiAPI.Close()

	anthropicAPI := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/organizations/usage_report":
			io.WriteString(w, `{"input_tokens": 1000, "output_tokens": 1000, "request_count": 7}`)
		case "/v1/organizations/credits":
			io.WriteString(w, `{"amount_usd": 250.0, "prepaid": true}`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer anthropicAPI.Close()

	openaiClient, err := openai.NewClient(providers.ClientConfig{
		Name:    "openai",
		Model:   "gpt-4",
		BaseURL: openaiAPI.URL,
		APIKey:  "sk-test",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("openai.NewClient: %v", err)
	}
	defer openaiClient.Close()

	anthropicClient, err := anthropic.NewClient(providers.ClientConfig{
		Name:    "anthropic",
		Model:   "claude-3-opus",
		BaseURL: anthropicAPI.URL,
		APIKey:  "ant-test",
		Timeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("anthropic.NewClient: %v", err)
	}
	defer anthropicClient.Close()

	provs := []providers.Provider{openaiClient, anthropicClient}
	identities := []providers.Identity{openaiClient.Identity(), anthropicClient.Identity()}

	registry, err := metrics.New(prometheus.NewRegistry(), identities)
	if err != nil {
		t.Fatalf("metrics.New: %v", err)
	}

	p := poller.New(poller.Config{
		Interval:     time.Minute,
		FetchTimeout: 5 * time.Second,
	}, provs, pricing.NewTable(), registry)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := p.Start(ctx); err != nil {
		t.Fatalf("poller.Start: %v", err)
	}
	defer p.Stop()

	srv := server.New(server.Config{}, registry)

	// The startup poll runs asynchronously; wait for both providers to land.
	body := waitForSeries(t, srv, []string{
		`llm_cost_usd{model="gpt-4",provider="openai"} 12.5`,
		`llm_tokens{model="claude-3-opus",provider="anthropic",type="prompt"} 1000`,
	})

	for _, want := range []string{
		// OpenAI reports cents; balance = hard limit minus spend.
		`llm_cost_usd{model="gpt-4",provider="openai"} 12.5`,
		`llm_remaining_balance_usd{model="gpt-4",provider="openai"} 87.5`,
		// Anthropic reports tokens only; cost derived from the rate table.
		`llm_cost_usd{model="claude-3-opus",provider="anthropic"} 0.09`,
		`llm_tokens{model="claude-3-opus",provider="anthropic",type="completion"} 1000`,
		`llm_requests{model="claude-3-opus",provider="anthropic"} 7`,
		`llm_remaining_balance_usd{model="claude-3-opus",provider="anthropic"} 250`,
		`llm_last_poll_success{provider="openai"} 1`,
		`llm_last_poll_success{provider="anthropic"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("exposition missing %q:\n%s", want, body)
		}
	}
}

// waitForSeries scrapes the handler until every wanted series appears or
// the deadline passes, returning the last body either way.
func waitForSeries(t *testing.T, srv *server.Server, wanted []string) string {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	var body string
	for time.Now().Before(deadline) {
		req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		body = rec.Body.String()

		found := true
		for _, want := range wanted {
			if !strings.Contains(body, want) {
				found = false
				break
			}
		}
		if found {
			return body
		}
		time.Sleep(20 * time.Millisecond)
	}
	return body
}
