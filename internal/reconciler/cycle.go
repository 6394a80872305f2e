package reconciler

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"roomop/internal/audit"
	"roomop/internal/client"
	"roomop/internal/diff"
	"roomop/internal/events"
	"roomop/internal/guardrails"
	"roomop/internal/retrypolicy"
	"roomop/internal/spec"
	"roomop/pkg/logging"
)

// CycleState is the phase a reconcile cycle is in, or ended in.
type CycleState string

const (
	StateIdle           CycleState = "Idle"
	StateFetching       CycleState = "Fetching"
	StateDiffing        CycleState = "Diffing"
	StateGuardrailCheck CycleState = "GuardrailCheck"
	StateApplying       CycleState = "Applying"
	StateAuditing       CycleState = "Auditing"

	// StateBlocked is terminal for a cycle halted by guardrails, including
	// an unconfirmed high-impact change.
	StateBlocked CycleState = "Blocked"

	// StateFailed is terminal for a cycle aborted by a collaborator failure.
	StateFailed CycleState = "Failed"
)

// DefaultApplyFanout bounds concurrent apply operations within one phase.
const DefaultApplyFanout = 4

// Request asks for one reconcile cycle against the given desired spec.
type Request struct {
	Spec *spec.RoomSpec

	// Confirm marks the caller's explicit approval of high-impact changes.
	Confirm bool

	// DryRun stops the cycle after the guardrail check and reports the
	// operations that would have been applied.
	DryRun bool
}

// Result summarizes one finished reconcile cycle.
type Result struct {
	CorrelationID string           `json:"correlationId"`
	RoomID        string           `json:"roomId"`
	State         CycleState       `json:"state"`
	Applied       []diff.Operation `json:"applied,omitempty"`
	Failed        []diff.Operation `json:"failed,omitempty"`
	Blocked       []diff.Operation `json:"blocked,omitempty"`

	// Planned is the approved apply set of a dry run.
	Planned []diff.Operation `json:"planned,omitempty"`

	Errors    []string  `json:"errors,omitempty"`
	Warnings  []string  `json:"warnings,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

// Converged reports whether the cycle finished with the room matching the
// desired spec.
func (r Result) Converged() bool {
	return r.State == StateIdle && len(r.Failed) == 0 && len(r.Blocked) == 0
}

// Duration is the wall-clock time the cycle took.
func (r Result) Duration() time.Duration {
	return r.EndTime.Sub(r.StartTime)
}

// MetricsRecorder receives per-cycle and per-operation observations. The
// zero dependency is allowed; cycles run the same without one.
type MetricsRecorder interface {
	ObserveCycle(roomID string, state CycleState, duration time.Duration)
	ObserveOperation(opType diff.OperationType, outcome audit.Outcome)
}

// Deps wires a cycle to its collaborators. Rooms, Artifacts, Policies,
// Retry, Audit and Broadcaster are required; Capabilities and Metrics are
// optional.
type Deps struct {
	Rooms        client.RoomClient
	Artifacts    client.ArtifactClient
	Policies     client.PolicyClient
	Capabilities client.CapabilityClient

	Guardrails  guardrails.Config
	Retry       *retrypolicy.Policy
	Audit       *audit.Log
	Broadcaster *events.Broadcaster
	Metrics     MetricsRecorder

	// ApplyFanout bounds concurrent applies within one operation class;
	// values < 1 select DefaultApplyFanout.
	ApplyFanout int
}

func (d Deps) fanout() int {
	if d.ApplyFanout < 1 {
		return DefaultApplyFanout
	}
	return d.ApplyFanout
}

// Cycle executes single reconcile cycles. It holds no per-room state; the
// Manager is responsible for serializing cycles per room.
type Cycle struct {
	deps Deps
}

// NewCycle creates a cycle executor over the given collaborators.
func NewCycle(deps Deps) *Cycle {
	return &Cycle{deps: deps}
}

// Run executes one reconcile cycle: fetch the observed state, diff it
// against the desired spec, gate the diff through guardrails, apply the
// approved operations with per-operation retry and failure isolation, and
// audit plus broadcast the outcome. Every audit entry and event of the
// cycle shares one correlation ID.
func (c *Cycle) Run(ctx context.Context, req Request) Result {
	result := Result{
		CorrelationID: uuid.New().String(),
		StartTime:     time.Now().UTC(),
	}
	if req.Spec == nil {
		result.State = StateFailed
		result.Errors = append(result.Errors, "no desired spec")
		result.EndTime = time.Now().UTC()
		return result
	}
	result.RoomID = req.Spec.Spec.RoomID

	logging.Info("Reconciler", "cycle %s starting for room %s (spec version %d)",
		result.CorrelationID, result.RoomID, req.Spec.Metadata.Version)

	result.State = StateFetching
	state, err := c.fetchState(ctx, result.RoomID, &result)
	if err != nil {
		return c.abort(&result, "FetchState", err)
	}

	result.State = StateDiffing
	ops := diff.Compute(req.Spec, state)
	if len(ops) == 0 {
		logging.Debug("Reconciler", "room %s already converged", result.RoomID)
		return c.complete(&result)
	}

	result.State = StateGuardrailCheck
	decision := guardrails.Evaluate(c.deps.Guardrails, ops, guardrails.Context{
		TotalManaged:    len(state.Entities) + len(state.Artifacts),
		ConfirmProvided: req.Confirm,
	})
	result.Warnings = append(result.Warnings, decision.Warnings...)

	if !decision.Approved() {
		// RequiresConfirmation surfaces as a blocked cycle too; the caller
		// may re-trigger with confirmation.
		return c.block(&result, ops, decision)
	}

	if req.DryRun {
		result.Planned = decision.Operations
		for _, op := range decision.Operations {
			c.record(&result, op, audit.OutcomeSkipped, "dry run")
		}
		return c.complete(&result)
	}

	result.State = StateApplying
	c.apply(ctx, &result, decision.Operations)

	result.State = StateAuditing
	c.verify(ctx, req.Spec, &result)

	if len(result.Failed) > 0 {
		result.State = StateFailed
		return c.finish(&result, events.TypeReconcileFailed)
	}
	return c.complete(&result)
}

// fetchState assembles the observed room state. A capability registry
// failure degrades to a warning; every other fetch failure aborts the cycle.
func (c *Cycle) fetchState(ctx context.Context, roomID string, result *Result) (*client.RoomState, error) {
	state := &client.RoomState{RoomID: roomID, LastUpdated: time.Now().UTC()}

	err := c.deps.Retry.Execute(ctx, "FetchEntities", func() error {
		entities, err := c.deps.Rooms.GetEntities(ctx, roomID)
		if err != nil {
			return err
		}
		state.Entities = entities
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching entities: %w", err)
	}

	err = c.deps.Retry.Execute(ctx, "FetchArtifacts", func() error {
		artifacts, err := c.deps.Artifacts.ListArtifacts(ctx, roomID)
		if err != nil {
			return err
		}
		state.Artifacts = artifacts
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching artifacts: %w", err)
	}

	err = c.deps.Retry.Execute(ctx, "FetchPolicies", func() error {
		policies, err := c.deps.Policies.GetPolicies(ctx, roomID)
		if err != nil {
			return err
		}
		state.Policies = policies
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching policies: %w", err)
	}

	if c.deps.Capabilities != nil {
		providers, err := c.deps.Capabilities.ListProviders(ctx)
		if err != nil {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("capability registry unavailable: %v", err))
			logging.Warn("Reconciler", "capability registry unavailable for room %s: %v", roomID, err)
		} else {
			state.Providers = providers
		}
	}

	return state, nil
}

// apply executes the approved operations class by class: all adds, then all
// updates, then all removes. Within a class, operations run concurrently up
// to the fan-out limit, and one operation's failure never cancels another.
func (c *Cycle) apply(ctx context.Context, result *Result, ops []diff.Operation) {
	var mu sync.Mutex

	for _, phase := range [][]diff.Operation{adds(ops), updates(ops), removes(ops)} {
		if len(phase) == 0 {
			continue
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(c.deps.fanout())

		for _, op := range phase {
			op := op
			g.Go(func() error {
				name := fmt.Sprintf("%s %s", op.Type, op.TargetID)
				err := c.deps.Retry.Execute(gctx, name, func() error {
					return c.applyOperation(gctx, result.RoomID, op)
				})

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Failed = append(result.Failed, op)
					result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", name, err))
					c.record(result, op, audit.OutcomeFailed, err.Error())
				} else {
					result.Applied = append(result.Applied, op)
					c.record(result, op, audit.OutcomeApplied, "")
				}
				return nil
			})
		}
		g.Wait()
	}

	sortOps(result.Applied)
	sortOps(result.Failed)
}

// applyOperation dispatches one operation to the owning collaborator.
func (c *Cycle) applyOperation(ctx context.Context, roomID string, op diff.Operation) error {
	switch op.Type {
	case diff.OpAddEntity:
		entity, ok := op.After.(spec.Entity)
		if !ok {
			return fmt.Errorf("AddEntity %s: unexpected payload %T", op.TargetID, op.After)
		}
		return c.deps.Rooms.JoinEntity(ctx, roomID, entity)

	case diff.OpRemoveEntity:
		return c.deps.Rooms.KickEntity(ctx, roomID, op.TargetID)

	case diff.OpUpdateEntityPolicy:
		entity, ok := op.After.(spec.Entity)
		if !ok {
			return fmt.Errorf("UpdateEntityPolicy %s: unexpected payload %T", op.TargetID, op.After)
		}
		return c.deps.Rooms.UpdateEntityPolicy(ctx, roomID, entity)

	case diff.OpAddArtifact:
		artifact, ok := op.After.(spec.Artifact)
		if !ok {
			return fmt.Errorf("AddArtifact %s: unexpected payload %T", op.TargetID, op.After)
		}
		return c.deps.Artifacts.AddArtifact(ctx, roomID, artifact)

	case diff.OpRemoveArtifact:
		return c.deps.Artifacts.DeleteArtifact(ctx, roomID, op.TargetID)

	case diff.OpUpdatePolicy:
		want, ok := op.After.(map[string]string)
		if !ok {
			return fmt.Errorf("UpdatePolicy: unexpected payload %T", op.After)
		}
		names := make([]string, 0, len(want))
		for name := range want {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			if err := c.deps.Policies.ApplyPolicy(ctx, roomID, name, want[name]); err != nil {
				return fmt.Errorf("applying policy %s: %w", name, err)
			}
		}
		return nil

	default:
		return fmt.Errorf("unknown operation type %q", op.Type)
	}
}

// verify re-fetches the room after applying and reports leftover drift as a
// warning. Verification is best effort; its failures never fail the cycle.
func (c *Cycle) verify(ctx context.Context, desired *spec.RoomSpec, result *Result) {
	if len(result.Applied) == 0 {
		return
	}
	verifyResult := Result{RoomID: result.RoomID}
	state, err := c.fetchState(ctx, result.RoomID, &verifyResult)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("convergence check skipped: %v", err))
		return
	}
	if remaining := diff.Compute(desired, state); len(remaining) > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("room not converged after apply: %d operations remaining", len(remaining)))
	}
}

// block records and reports a guardrail-halted cycle. Every operation of
// the rejected set is audited with outcome blocked.
func (c *Cycle) block(result *Result, ops []diff.Operation, decision guardrails.Decision) Result {
	result.State = StateBlocked
	result.Blocked = ops
	result.Errors = append(result.Errors, decision.Reasons...)

	detail := strings.Join(decision.Reasons, "; ")
	for _, op := range ops {
		c.record(result, op, audit.OutcomeBlocked, detail)
	}
	return c.finish(result, events.TypeReconcileBlocked)
}

func (c *Cycle) abort(result *Result, operation string, err error) Result {
	result.State = StateFailed
	result.Errors = append(result.Errors, err.Error())
	c.deps.Audit.Record(audit.Entry{
		CorrelationID: result.CorrelationID,
		Operation:     operation,
		Outcome:       audit.OutcomeFailed,
		Detail:        err.Error(),
	})
	logging.Error("Reconciler", err, "cycle %s for room %s aborted", result.CorrelationID, result.RoomID)
	return c.finish(result, events.TypeReconcileFailed)
}

func (c *Cycle) complete(result *Result) Result {
	result.State = StateIdle
	return c.finish(result, events.TypeReconcileCompleted)
}

// finish stamps the end time, broadcasts the summary envelope and reports
// metrics. It is the single exit path of Run.
func (c *Cycle) finish(result *Result, eventType string) Result {
	result.EndTime = time.Now().UTC()

	if c.deps.Broadcaster != nil {
		c.deps.Broadcaster.Broadcast(events.NewEnvelope(eventType, map[string]interface{}{
			"correlationId": result.CorrelationID,
			"roomId":        result.RoomID,
			"state":         string(result.State),
			"applied":       len(result.Applied),
			"failed":        len(result.Failed),
			"blocked":       len(result.Blocked),
			"durationMs":    result.Duration().Milliseconds(),
		}))
	}
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObserveCycle(result.RoomID, result.State, result.Duration())
	}

	logging.Info("Reconciler", "cycle %s for room %s finished: state=%s applied=%d failed=%d blocked=%d",
		result.CorrelationID, result.RoomID, result.State,
		len(result.Applied), len(result.Failed), len(result.Blocked))
	return *result
}

// record writes one per-operation audit entry and metrics observation.
func (c *Cycle) record(result *Result, op diff.Operation, outcome audit.Outcome, detail string) {
	c.deps.Audit.Record(audit.Entry{
		CorrelationID: result.CorrelationID,
		Operation:     fmt.Sprintf("%s %s", op.Type, op.TargetID),
		Outcome:       outcome,
		Detail:        detail,
	})
	if c.deps.Metrics != nil {
		c.deps.Metrics.ObserveOperation(op.Type, outcome)
	}
}

func adds(ops []diff.Operation) []diff.Operation {
	return filterOps(ops, diff.OpAddEntity, diff.OpAddArtifact)
}

func updates(ops []diff.Operation) []diff.Operation {
	return filterOps(ops, diff.OpUpdateEntityPolicy, diff.OpUpdatePolicy)
}

func removes(ops []diff.Operation) []diff.Operation {
	return filterOps(ops, diff.OpRemoveEntity, diff.OpRemoveArtifact)
}

func filterOps(ops []diff.Operation, types ...diff.OperationType) []diff.Operation {
	var matched []diff.Operation
	for _, op := range ops {
		for _, t := range types {
			if op.Type == t {
				matched = append(matched, op)
				break
			}
		}
	}
	return matched
}

// sortOps restores the deterministic add/update/remove ordering on result
// slices that were filled concurrently.
func sortOps(ops []diff.Operation) {
	sort.SliceStable(ops, func(i, j int) bool {
		ri, rj := opRank(ops[i].Type), opRank(ops[j].Type)
		if ri != rj {
			return ri < rj
		}
		return ops[i].TargetID < ops[j].TargetID
	})
}

func opRank(t diff.OperationType) int {
	switch t {
	case diff.OpAddEntity, diff.OpAddArtifact:
		return 0
	case diff.OpUpdateEntityPolicy, diff.OpUpdatePolicy:
		return 1
	default:
		return 2
	}
}
