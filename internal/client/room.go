package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"roomop/internal/spec"
)

// GetEntities implements RoomClient.
func (h *HTTP) GetEntities(ctx context.Context, roomID string) ([]EntityState, error) {
	var entities []EntityState
	path := fmt.Sprintf("/api/rooms/%s/entities", url.PathEscape(roomID))
	if err := h.do(ctx, "room.getEntities", http.MethodGet, path, nil, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}

// JoinEntity implements RoomClient.
func (h *HTTP) JoinEntity(ctx context.Context, roomID string, entity spec.Entity) error {
	path := fmt.Sprintf("/api/rooms/%s/entities", url.PathEscape(roomID))
	err := h.do(ctx, "room.joinEntity", http.MethodPost, path, entity, nil)
	// 409 means the entity is already present: idempotent success.
	if isConflict(err) {
		return nil
	}
	return err
}

// KickEntity implements RoomClient.
func (h *HTTP) KickEntity(ctx context.Context, roomID, entityID string) error {
	path := fmt.Sprintf("/api/rooms/%s/entities/%s", url.PathEscape(roomID), url.PathEscape(entityID))
	err := h.do(ctx, "room.kickEntity", http.MethodDelete, path, nil, nil)
	if isNotFound(err) {
		return nil
	}
	return err
}

// UpdateEntityPolicy implements RoomClient.
func (h *HTTP) UpdateEntityPolicy(ctx context.Context, roomID string, entity spec.Entity) error {
	path := fmt.Sprintf("/api/rooms/%s/entities/%s/policy", url.PathEscape(roomID), url.PathEscape(entity.ID))
	return h.do(ctx, "room.updateEntityPolicy", http.MethodPut, path, entity, nil)
}
