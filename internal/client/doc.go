// Package client defines the contracts for the external collaborators the
// operator reconciles through: the room service (entities), the artifact
// store, the policy service, and the capability-provider registry.
//
// The operator never talks to these services directly from the reconcile
// logic; it goes through the interfaces declared here so tests can swap in
// the fakes from the mock subpackage. The HTTP implementations share one
// resilient transport that classifies failures as transient (retryable) or
// terminal, rate-limits outbound calls, and trips a circuit breaker when
// the room service is persistently unhealthy.
//
// All apply operations are idempotent at the identifier level: re-adding an
// entity that is already present, or deleting an artifact that is already
// gone, is a no-op success.
package client
