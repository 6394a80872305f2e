// Package guardrails gates reconcile diffs behind configured safety limits
// so a single cycle can never exceed its permitted blast radius.
package guardrails

import (
	"fmt"

	"roomop/internal/diff"
	"roomop/pkg/logging"
)

// Verdict is the outcome class of one guardrail evaluation.
type Verdict string

const (
	// VerdictApproved allows the full operation set to be applied.
	VerdictApproved Verdict = "Approved"

	// VerdictBlocked rejects the operation set outright.
	VerdictBlocked Verdict = "Blocked"

	// VerdictRequiresConfirmation defers to a human-in-the-loop override.
	VerdictRequiresConfirmation Verdict = "RequiresConfirmation"
)

// Config holds the safety limits for one reconcile cycle.
type Config struct {
	// MaxEntitiesKickPerCycle caps RemoveEntity operations per cycle.
	MaxEntitiesKickPerCycle int `yaml:"maxEntitiesKickPerCycle"`

	// MaxArtifactsDeletePerCycle caps RemoveArtifact operations per cycle.
	MaxArtifactsDeletePerCycle int `yaml:"maxArtifactsDeletePerCycle"`

	// ChangeThreshold is the fraction of managed objects that may change in
	// one cycle before confirmation is required.
	ChangeThreshold float64 `yaml:"changeThreshold"`

	// RequireConfirmHeader escalates unconfirmed threshold breaches to a
	// block. When false, breaches are approved with a recorded warning.
	RequireConfirmHeader bool `yaml:"requireConfirmHeader"`
}

// DefaultConfig mirrors the operator's stock safety limits.
func DefaultConfig() Config {
	return Config{
		MaxEntitiesKickPerCycle:    5,
		MaxArtifactsDeletePerCycle: 10,
		ChangeThreshold:            0.5,
		RequireConfirmHeader:       true,
	}
}

// Context carries the per-cycle inputs of an evaluation.
type Context struct {
	// TotalManaged is the number of objects currently under management
	// (observed entities plus artifacts).
	TotalManaged int

	// ConfirmProvided is true when the caller supplied an explicit
	// confirmation for high-impact changes.
	ConfirmProvided bool
}

// Decision is the immutable result of one evaluation. Operations holds the
// approved set; Reasons explains blocks and confirmation requests.
type Decision struct {
	Verdict    Verdict          `json:"verdict"`
	Operations []diff.Operation `json:"operations,omitempty"`
	Reasons    []string         `json:"reasons,omitempty"`
	Warnings   []string         `json:"warnings,omitempty"`
}

// Approved reports whether the decision allows applying.
func (d Decision) Approved() bool {
	return d.Verdict == VerdictApproved
}

// Evaluate checks a diff against the configured limits. It is deterministic
// for identical (operations, config, context) input, mutates nothing, and
// its only output is the decision.
//
// Cap breaches block the entire apply set rather than truncating it:
// all-or-nothing keeps a partially-applied mass removal from ever happening.
func Evaluate(cfg Config, operations []diff.Operation, cycleCtx Context) Decision {
	kicks, deletes := 0, 0
	for _, op := range operations {
		switch op.Type {
		case diff.OpRemoveEntity:
			kicks++
		case diff.OpRemoveArtifact:
			deletes++
		}
	}

	var reasons []string
	if kicks > cfg.MaxEntitiesKickPerCycle {
		reasons = append(reasons, fmt.Sprintf(
			"entity kick count (%d) exceeds limit (%d)", kicks, cfg.MaxEntitiesKickPerCycle))
	}
	if deletes > cfg.MaxArtifactsDeletePerCycle {
		reasons = append(reasons, fmt.Sprintf(
			"artifact delete count (%d) exceeds limit (%d)", deletes, cfg.MaxArtifactsDeletePerCycle))
	}
	if len(reasons) > 0 {
		logging.Warn("Guardrails", "blocking apply set: %v", reasons)
		return Decision{Verdict: VerdictBlocked, Reasons: reasons}
	}

	ratio := changeRatio(len(operations), cycleCtx.TotalManaged)
	if ratio > cfg.ChangeThreshold {
		reason := fmt.Sprintf(
			"change ratio (%.0f%%) exceeds threshold (%.0f%%)", ratio*100, cfg.ChangeThreshold*100)

		switch {
		case !cfg.RequireConfirmHeader:
			return Decision{
				Verdict:    VerdictApproved,
				Operations: operations,
				Warnings:   []string{reason + ", approved without confirmation requirement"},
			}
		case cycleCtx.ConfirmProvided:
			return Decision{
				Verdict:    VerdictApproved,
				Operations: operations,
				Warnings:   []string{reason + ", confirmed by caller"},
			}
		default:
			// Unconfirmed high-impact change escalates to a block; the
			// caller may retry with confirmation.
			logging.Warn("Guardrails", "confirmation required: %s", reason)
			return Decision{
				Verdict: VerdictRequiresConfirmation,
				Reasons: []string{reason + ", confirmation required"},
			}
		}
	}

	return Decision{Verdict: VerdictApproved, Operations: operations}
}

// changeRatio is changed / max(totalManaged, 1).
func changeRatio(changed, totalManaged int) float64 {
	if totalManaged < 1 {
		totalManaged = 1
	}
	return float64(changed) / float64(totalManaged)
}
