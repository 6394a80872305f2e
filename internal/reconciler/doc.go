// Package reconciler drives rooms from their observed state toward the
// declared spec. A cycle fetches live state, computes a typed diff, gates
// it through guardrails, applies the approved operations with bounded
// fan-out and per-operation retry, then audits and broadcasts the outcome.
//
// The Manager serializes cycles per room while letting distinct rooms
// reconcile in parallel, and coalesces bursts of triggers into at most one
// pending cycle per room.
package reconciler
