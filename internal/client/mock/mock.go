// Package mock provides in-memory fakes of the collaborator clients for
// tests. Each fake keeps real state so reconcile cycles can be exercised
// end to end, and exposes per-operation error hooks for failure injection.
package mock

import (
	"context"
	"strconv"
	"sync"

	"roomop/internal/client"
	"roomop/internal/spec"
)

// RoomService is an in-memory stand-in for the room service and its
// satellite collaborators. It implements client.RoomClient,
// client.ArtifactClient, client.PolicyClient and client.CapabilityClient.
type RoomService struct {
	mu sync.Mutex

	Entities  map[string]client.EntityState
	Artifacts map[string]client.ArtifactState
	Policies  map[string]string
	Providers []string

	// Err, when non-nil, is returned by every operation whose name is in
	// FailOps (or by all operations when FailOps is empty).
	Err     error
	FailOps map[string]bool

	// Calls records operation names in invocation order.
	Calls []string
}

// NewRoomService creates an empty fake room service.
func NewRoomService() *RoomService {
	return &RoomService{
		Entities:  make(map[string]client.EntityState),
		Artifacts: make(map[string]client.ArtifactState),
		Policies:  make(map[string]string),
		FailOps:   make(map[string]bool),
	}
}

// SeedFromSpec populates the fake state so that it exactly matches the
// desired spec, which makes a subsequent diff empty.
func (s *RoomService) SeedFromSpec(rs *spec.RoomSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, e := range rs.Spec.Entities {
		s.Entities[e.ID] = client.EntityState{
			ID:           e.ID,
			Kind:         e.Kind,
			DisplayName:  e.DisplayName,
			Visibility:   e.Visibility,
			OwnerUserID:  e.OwnerUserID,
			Capabilities: e.Capabilities,
			Connected:    true,
		}
	}
	for _, a := range rs.Spec.Artifacts {
		s.Artifacts[a.Name] = client.ArtifactState{
			Name:      a.Name,
			Type:      a.Type,
			Workspace: a.Workspace,
			Tags:      a.Tags,
		}
	}
	s.Policies["dmVisibilityDefault"] = rs.Spec.Policies.EffectiveDmVisibility()
	s.Policies["allowResourceCreation"] = strconv.FormatBool(rs.Spec.Policies.AllowResourceCreation)
	s.Policies["maxArtifactsPerEntity"] = strconv.Itoa(rs.Spec.Policies.MaxArtifactsPerEntity)
}

func (s *RoomService) fail(op string) error {
	s.Calls = append(s.Calls, op)
	if s.Err == nil {
		return nil
	}
	if len(s.FailOps) == 0 || s.FailOps[op] {
		return s.Err
	}
	return nil
}

// GetEntities implements client.RoomClient.
func (s *RoomService) GetEntities(ctx context.Context, roomID string) ([]client.EntityState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("room.getEntities"); err != nil {
		return nil, err
	}
	entities := make([]client.EntityState, 0, len(s.Entities))
	for _, e := range s.Entities {
		entities = append(entities, e)
	}
	return entities, nil
}

// JoinEntity implements client.RoomClient.
func (s *RoomService) JoinEntity(ctx context.Context, roomID string, entity spec.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("room.joinEntity"); err != nil {
		return err
	}
	s.Entities[entity.ID] = client.EntityState{
		ID:           entity.ID,
		Kind:         entity.Kind,
		DisplayName:  entity.DisplayName,
		Visibility:   entity.Visibility,
		OwnerUserID:  entity.OwnerUserID,
		Capabilities: entity.Capabilities,
	}
	return nil
}

// KickEntity implements client.RoomClient.
func (s *RoomService) KickEntity(ctx context.Context, roomID, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("room.kickEntity"); err != nil {
		return err
	}
	delete(s.Entities, entityID)
	return nil
}

// UpdateEntityPolicy implements client.RoomClient.
func (s *RoomService) UpdateEntityPolicy(ctx context.Context, roomID string, entity spec.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("room.updateEntityPolicy"); err != nil {
		return err
	}
	state := s.Entities[entity.ID]
	state.ID = entity.ID
	state.Visibility = entity.Visibility
	state.OwnerUserID = entity.OwnerUserID
	state.Capabilities = entity.Capabilities
	s.Entities[entity.ID] = state
	return nil
}

// ListArtifacts implements client.ArtifactClient.
func (s *RoomService) ListArtifacts(ctx context.Context, roomID string) ([]client.ArtifactState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("artifact.list"); err != nil {
		return nil, err
	}
	artifacts := make([]client.ArtifactState, 0, len(s.Artifacts))
	for _, a := range s.Artifacts {
		artifacts = append(artifacts, a)
	}
	return artifacts, nil
}

// AddArtifact implements client.ArtifactClient.
func (s *RoomService) AddArtifact(ctx context.Context, roomID string, artifact spec.Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("artifact.add"); err != nil {
		return err
	}
	s.Artifacts[artifact.Name] = client.ArtifactState{
		Name:      artifact.Name,
		Type:      artifact.Type,
		Workspace: artifact.Workspace,
		Tags:      artifact.Tags,
	}
	return nil
}

// DeleteArtifact implements client.ArtifactClient.
func (s *RoomService) DeleteArtifact(ctx context.Context, roomID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("artifact.delete"); err != nil {
		return err
	}
	delete(s.Artifacts, name)
	return nil
}

// GetPolicies implements client.PolicyClient.
func (s *RoomService) GetPolicies(ctx context.Context, roomID string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("policy.get"); err != nil {
		return nil, err
	}
	policies := make(map[string]string, len(s.Policies))
	for k, v := range s.Policies {
		policies[k] = v
	}
	return policies, nil
}

// ApplyPolicy implements client.PolicyClient.
func (s *RoomService) ApplyPolicy(ctx context.Context, roomID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("policy.apply"); err != nil {
		return err
	}
	s.Policies[name] = value
	return nil
}

// ListProviders implements client.CapabilityClient.
func (s *RoomService) ListProviders(ctx context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.fail("capability.listProviders"); err != nil {
		return nil, err
	}
	return append([]string(nil), s.Providers...), nil
}

// CallCount returns how many times op was invoked.
func (s *RoomService) CallCount(op string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.Calls {
		if c == op {
			n++
		}
	}
	return n
}
