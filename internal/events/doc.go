// Package events distributes operator events to live subscribers.
//
// The Broadcaster fans every envelope out to per-subscriber bounded queues.
// A full queue drops its oldest buffered envelope to admit the newest:
// observability data favors recency over completeness, and a slow dashboard
// must never block a reconcile cycle. Call sites that need full delivery
// must use a different mechanism explicitly.
//
// The StreamWriter drains one subscription to an HTTP client as
// Server-Sent Events, serializing writes through a connection-scoped lock
// and emitting a comment heartbeat after every 10 seconds of inactivity so
// intermediaries do not time the connection out.
package events
