// Package pricing derives USD costs from token counts.
//
// Rates are per 1000 tokens, split into prompt and completion, keyed by
// model name with prefix matching for dated model snapshots. The table is
// read-only at runtime; unknown models resolve to zero cost rather than an
// error so a pricing gap never fails a poll.
package pricing
