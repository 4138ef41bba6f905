// Package events is the push channel between background resources and
// the UI layer.
//
// Terminal reader goroutines and repository watchers publish onto a
// single dispatcher, which fans events out to WebSocket subscribers.
// Delivery is best-effort: producers never block and a slow consumer
// loses events instead of stalling a PTY read loop.
package events
