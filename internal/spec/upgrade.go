package spec

import (
	"fmt"
	"strings"
)

// UpgradeValidationResult is the outcome of checking a spec version upgrade.
type UpgradeValidationResult struct {
	CurrentVersion int      `json:"currentVersion"`
	NewVersion     int      `json:"newVersion"`
	Errors         []string `json:"errors"`
	Warnings       []string `json:"warnings"`
}

// IsValid reports whether the upgrade may be accepted.
func (r *UpgradeValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}

// ValidateUpgrade checks whether next is an acceptable successor to current.
//
// Version regressions and room identity changes are terminal errors and
// short-circuit the remaining checks. Removals of entities or artifacts
// between versions are allowed but surfaced as warnings so an operator can
// review the blast radius before applying.
func ValidateUpgrade(current, next *RoomSpec) UpgradeValidationResult {
	result := UpgradeValidationResult{
		CurrentVersion: current.Metadata.Version,
		NewVersion:     next.Metadata.Version,
	}

	if next.Metadata.Version <= current.Metadata.Version {
		result.Errors = append(result.Errors, fmt.Sprintf(
			"New version (%d) must be greater than current version (%d)",
			next.Metadata.Version, current.Metadata.Version))
		return result
	}

	if next.Spec.RoomID != current.Spec.RoomID {
		result.Errors = append(result.Errors, "RoomId cannot be changed")
		return result
	}

	if removed := removedIdentifiers(entityIDs(current), entityIDs(next)); len(removed) > 0 {
		result.Warnings = append(result.Warnings,
			"Entities will be removed: "+strings.Join(removed, ", "))
	}

	if removed := removedIdentifiers(artifactNames(current), artifactNames(next)); len(removed) > 0 {
		result.Warnings = append(result.Warnings,
			"Artifacts will be removed: "+strings.Join(removed, ", "))
	}

	return result
}

func entityIDs(s *RoomSpec) []string {
	ids := make([]string, 0, len(s.Spec.Entities))
	for _, e := range s.Spec.Entities {
		ids = append(ids, e.ID)
	}
	return ids
}

func artifactNames(s *RoomSpec) []string {
	names := make([]string, 0, len(s.Spec.Artifacts))
	for _, a := range s.Spec.Artifacts {
		names = append(names, a.Name)
	}
	return names
}

// removedIdentifiers returns, in stable order, the identifiers present in
// current but absent in next. Order and unrelated field changes are
// irrelevant to the comparison.
func removedIdentifiers(current, next []string) []string {
	present := make(map[string]bool, len(next))
	for _, id := range next {
		present[id] = true
	}

	var removed []string
	for _, id := range current {
		if !present[id] {
			removed = append(removed, id)
		}
	}
	return removed
}
