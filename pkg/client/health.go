package client

import (
	"context"
	"sort"
)

// HealthResponse is the liveness probe body
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
	Version string `json:"version"`
}

// Dependency is one entry of the readiness report
type Dependency struct {
	Status    string `json:"status"`
	LatencyMS int64  `json:"latency_ms"`
}

// Readiness is the /readyz body. Status is "ready" or "degraded".
type Readiness struct {
	Status       string                `json:"status"`
	Version      string                `json:"version"`
	Dependencies map[string]Dependency `json:"dependencies"`
}

// Names returns the dependency names in a stable order
func (r *Readiness) Names() []string {
	names := make([]string, 0, len(r.Dependencies))
	for name := range r.Dependencies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Health calls the liveness probe
func (c *Client) Health(ctx context.Context) (*HealthResponse, error) {
	var health HealthResponse
	if err := c.doRequest(ctx, "GET", "/api/health", nil, &health); err != nil {
		return nil, err
	}
	return &health, nil
}

// Ready calls the readiness probe. An unavailable database comes back as
// an *APIError with status 503.
func (c *Client) Ready(ctx context.Context) (*Readiness, error) {
	var ready Readiness
	if err := c.doRequest(ctx, "GET", "/readyz", nil, &ready); err != nil {
		return nil, err
	}
	return &ready, nil
}

// Ping is a simple connectivity test
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Health(ctx)
	return err
}
