package spec

import (
	"fmt"
	"strings"
)

// ValidationResult collects the errors and warnings of one validation pass.
// Any error makes the result invalid; warnings are advisory only.
type ValidationResult struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// IsValid reports whether the validated spec may be accepted.
func (r ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *ValidationResult) addError(format string, args ...interface{}) {
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) addWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Validate performs structural and semantic validation of a room spec.
// It is a pure function of its input and has no side effects.
func Validate(s *RoomSpec) ValidationResult {
	var result ValidationResult

	if strings.TrimSpace(s.Spec.RoomID) == "" {
		result.addError("RoomId is required")
	}

	if s.Metadata.Version <= 0 {
		result.addError("Spec version must be positive")
	}

	entityIDs := make(map[string]bool, len(s.Spec.Entities))
	for _, entity := range s.Spec.Entities {
		if strings.TrimSpace(entity.ID) == "" {
			result.addError("Entity Id is required")
		} else if entityIDs[entity.ID] {
			result.addError("Duplicate entity Id: %s", entity.ID)
		} else {
			entityIDs[entity.ID] = true
		}

		if !IsValidEntityKind(entity.Kind) {
			result.addError("Invalid entity kind: %s", entity.Kind)
		}

		if entity.Visibility == VisibilityOwner && strings.TrimSpace(entity.OwnerUserID) == "" {
			result.addError("Entity %s with visibility=owner requires OwnerUserId", entity.ID)
		}
	}

	artifactNames := make(map[string]bool, len(s.Spec.Artifacts))
	for _, artifact := range s.Spec.Artifacts {
		if strings.TrimSpace(artifact.Name) == "" {
			result.addError("Artifact Name is required")
		} else if artifactNames[artifact.Name] {
			result.addError("Duplicate artifact name: %s", artifact.Name)
		} else {
			artifactNames[artifact.Name] = true
		}

		if strings.TrimSpace(artifact.Type) == "" {
			result.addError("Artifact %s requires Type", artifact.Name)
		}

		if strings.TrimSpace(artifact.Workspace) == "" {
			result.addError("Artifact %s requires Workspace", artifact.Name)
		}
	}

	if strings.TrimSpace(s.Spec.Policies.DmVisibilityDefault) == "" {
		result.addWarning("dmVisibilityDefault not set, will default to %q", DefaultDmVisibility)
	}

	return result
}

// IsValidEntityKind reports whether kind names a supported entity kind.
// Matching is case-insensitive.
func IsValidEntityKind(kind string) bool {
	switch EntityKind(strings.ToLower(kind)) {
	case KindHuman, KindAgent, KindNPC, KindOrchestrator:
		return true
	default:
		return false
	}
}
