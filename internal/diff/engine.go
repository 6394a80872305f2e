package diff

import (
	"sort"
	"strconv"

	"roomop/internal/client"
	"roomop/internal/spec"
)

// Compute compares the desired spec against the observed room state and
// returns the ordered list of change operations that would converge them.
//
// The engine performs no I/O. Nil inputs and missing collections are
// treated as empty, never dereferenced. Output ordering is fully
// deterministic: adds, then updates, then removes, each class sorted by
// target identifier, so identical inputs always produce identical diffs.
func Compute(desired *spec.RoomSpec, actual *client.RoomState) []Operation {
	var ops []Operation

	desiredEntities := make(map[string]spec.Entity)
	desiredArtifacts := make(map[string]spec.Artifact)
	if desired != nil {
		for _, e := range desired.Spec.Entities {
			desiredEntities[e.ID] = e
		}
		for _, a := range desired.Spec.Artifacts {
			desiredArtifacts[a.Name] = a
		}
	}

	actualEntities := make(map[string]client.EntityState)
	actualArtifacts := make(map[string]client.ArtifactState)
	if actual != nil {
		for _, e := range actual.Entities {
			actualEntities[e.ID] = e
		}
		for _, a := range actual.Artifacts {
			actualArtifacts[a.Name] = a
		}
	}

	for id, entity := range desiredEntities {
		observed, exists := actualEntities[id]
		switch {
		case !exists:
			ops = append(ops, Operation{Type: OpAddEntity, TargetID: id, After: entity})
		case entityDrifted(entity, observed):
			ops = append(ops, Operation{Type: OpUpdateEntityPolicy, TargetID: id, Before: observed, After: entity})
		}
	}
	for id, observed := range actualEntities {
		if _, desired := desiredEntities[id]; !desired {
			ops = append(ops, Operation{Type: OpRemoveEntity, TargetID: id, Before: observed})
		}
	}

	for name, artifact := range desiredArtifacts {
		if _, exists := actualArtifacts[name]; !exists {
			ops = append(ops, Operation{Type: OpAddArtifact, TargetID: name, After: artifact})
		}
	}
	for name, observed := range actualArtifacts {
		if _, desired := desiredArtifacts[name]; !desired {
			ops = append(ops, Operation{Type: OpRemoveArtifact, TargetID: name, Before: observed})
		}
	}

	if desired != nil {
		if op, changed := policyOperation(desired.Spec.Policies, actual); changed {
			ops = append(ops, op)
		}
	}

	sort.SliceStable(ops, func(i, j int) bool {
		ri, rj := classRank(ops[i].Type), classRank(ops[j].Type)
		if ri != rj {
			return ri < rj
		}
		return ops[i].TargetID < ops[j].TargetID
	})

	return ops
}

// entityDrifted reports whether the observed entity's policy-relevant
// fields diverge from the desired spec. Connection status is runtime state,
// not spec drift.
func entityDrifted(desired spec.Entity, observed client.EntityState) bool {
	if normalizeVisibility(desired.Visibility) != normalizeVisibility(observed.Visibility) {
		return true
	}
	if desired.OwnerUserID != observed.OwnerUserID {
		return true
	}
	return !sameStringSet(desired.Capabilities, observed.Capabilities)
}

// sameStringSet compares two string slices as sets.
func sameStringSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, v := range a {
		seen[v]++
	}
	for _, v := range b {
		seen[v]--
		if seen[v] < 0 {
			return false
		}
	}
	return true
}

func normalizeVisibility(v string) string {
	if v == "" {
		return spec.VisibilityTeam
	}
	return v
}

// policyOperation compares the desired room-wide policies against the
// observed policy map and, on drift, returns a single UpdatePolicy
// operation carrying the full before/after policy sets.
func policyOperation(desired spec.Policies, actual *client.RoomState) (Operation, bool) {
	var observed map[string]string
	if actual != nil {
		observed = actual.Policies
	}

	want := map[string]string{
		"dmVisibilityDefault":   desired.EffectiveDmVisibility(),
		"allowResourceCreation": strconv.FormatBool(desired.AllowResourceCreation),
		"maxArtifactsPerEntity": strconv.Itoa(desired.MaxArtifactsPerEntity),
	}

	drifted := false
	for key, value := range want {
		if observed[key] != value {
			drifted = true
			break
		}
	}
	if !drifted {
		return Operation{}, false
	}

	before := make(map[string]string, len(observed))
	for k, v := range observed {
		before[k] = v
	}

	return Operation{
		Type:     OpUpdatePolicy,
		TargetID: "room",
		Before:   before,
		After:    want,
	}, true
}
