// Package monitoring provides Prometheus metrics for the backend:
// HTTP request counters and latency histograms, gauges for live
// terminal sessions, repository watchers and WebSocket connections,
// and counters for events published to or dropped from the push
// channel.
package monitoring
