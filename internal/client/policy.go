package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// GetPolicies implements PolicyClient.
func (h *HTTP) GetPolicies(ctx context.Context, roomID string) (map[string]string, error) {
	var policies map[string]string
	path := fmt.Sprintf("/api/rooms/%s/policies", url.PathEscape(roomID))
	if err := h.do(ctx, "policy.get", http.MethodGet, path, nil, &policies); err != nil {
		return nil, err
	}
	return policies, nil
}

// ApplyPolicy implements PolicyClient.
func (h *HTTP) ApplyPolicy(ctx context.Context, roomID, name, value string) error {
	path := fmt.Sprintf("/api/rooms/%s/policies/%s", url.PathEscape(roomID), url.PathEscape(name))
	body := map[string]string{"value": value}
	return h.do(ctx, "policy.apply", http.MethodPut, path, body, nil)
}

// ListProviders implements CapabilityClient.
func (h *HTTP) ListProviders(ctx context.Context) ([]string, error) {
	var providers []string
	if err := h.do(ctx, "capability.listProviders", http.MethodGet, "/api/capabilities/providers", nil, &providers); err != nil {
		return nil, err
	}
	return providers, nil
}
