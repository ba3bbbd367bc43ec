// Package metrics implements the Prometheus registry the exporter
// publishes usage data through.
//
// Series published (namespace "llm"):
//
//   - llm_cost_usd{provider,model}: spend in USD at the last poll
//   - llm_tokens{provider,model,type}: prompt/completion token gauges
//   - llm_requests{provider,model}: request count at the last poll
//   - llm_remaining_balance_usd{provider,model}: remaining budget, absent
//     for accounts without a fixed limit
//   - llm_cost_usd_total: monotone accumulator across providers and polls
//   - llm_last_poll_success{provider}, llm_poll_errors_total{provider,reason}:
//     poll health
//
// All per-key series are last-write-wins gauges: each successful poll
// overwrites the prior value, and a failed poll leaves the prior value
// visible. Label cardinality is fixed at startup from the configured
// provider list.
package metrics
