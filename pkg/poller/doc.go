// Package poller drives the fixed-interval polling cycle across all
// configured providers.
//
// Each tick fans out one fetch per provider. Fetches are isolated: a
// failing or slow provider is logged, counted, and skipped for the tick,
// while its siblings proceed and its previously published metric values
// stay visible. Ticks fire on a fixed period rather than a fixed delay
// after completion; a fetch still running when the next tick fires causes
// that provider to be skipped for the tick, and the overrunning call
// applies its result when it lands.
package poller
