package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"roomop/internal/spec"
)

// ListArtifacts implements ArtifactClient.
func (h *HTTP) ListArtifacts(ctx context.Context, roomID string) ([]ArtifactState, error) {
	var artifacts []ArtifactState
	path := fmt.Sprintf("/api/rooms/%s/artifacts", url.PathEscape(roomID))
	if err := h.do(ctx, "artifact.list", http.MethodGet, path, nil, &artifacts); err != nil {
		return nil, err
	}
	return artifacts, nil
}

// AddArtifact implements ArtifactClient.
func (h *HTTP) AddArtifact(ctx context.Context, roomID string, artifact spec.Artifact) error {
	path := fmt.Sprintf("/api/rooms/%s/artifacts", url.PathEscape(roomID))
	err := h.do(ctx, "artifact.add", http.MethodPost, path, artifact, nil)
	if isConflict(err) {
		return nil
	}
	return err
}

// DeleteArtifact implements ArtifactClient.
func (h *HTTP) DeleteArtifact(ctx context.Context, roomID, name string) error {
	path := fmt.Sprintf("/api/rooms/%s/artifacts/%s", url.PathEscape(roomID), url.PathEscape(name))
	err := h.do(ctx, "artifact.delete", http.MethodDelete, path, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}
