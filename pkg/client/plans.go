package client

import (
	"context"
	"time"
)

// PlanService handles plan-related API calls
type PlanService struct {
	client *Client
}

// Plan is one catalog entry
type Plan struct {
	Name     string         `json:"name"`
	Price    int64          `json:"price"`
	Currency string         `json:"currency"`
	Limits   map[string]int `json:"limits"`
	Features []string       `json:"features"`
}

// Usage is the consumption of one limited feature
type Usage struct {
	Feature string `json:"feature"`
	Used    int    `json:"used"`
	Limit   int    `json:"limit"` // -1 means unlimited
}

// CurrentPlan is the caller's plan with usage
type CurrentPlan struct {
	Plan                string           `json:"plan"`
	Name                string           `json:"name"`
	Price               int64            `json:"price"`
	Currency            string           `json:"currency"`
	Limits              map[string]int   `json:"limits"`
	Usage               map[string]Usage `json:"usage"`
	SubscriptionExpires *time.Time       `json:"subscription_expires"`
}

// Available lists the catalog keyed by plan id
func (s *PlanService) Available(ctx context.Context) (map[string]Plan, error) {
	var plans map[string]Plan
	if err := s.client.doRequest(ctx, "GET", "/api/plans/available", nil, &plans); err != nil {
		return nil, err
	}
	return plans, nil
}

// Current returns the authenticated user's plan and usage
func (s *PlanService) Current(ctx context.Context) (*CurrentPlan, error) {
	var cp CurrentPlan
	if err := s.client.doRequest(ctx, "GET", "/api/plans/current", nil, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}
