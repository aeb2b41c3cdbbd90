package client

import (
	"context"
	"net/url"
	"time"
)

// ClientService handles CRM API calls
type ClientService struct {
	client *Client
}

// CRMClient is a contact in the user's CRM
type CRMClient struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Company   string    `json:"company,omitempty"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the caller's clients, optionally filtered by status
func (s *ClientService) List(ctx context.Context, status string) ([]CRMClient, error) {
	path := "/api/crm/clients"
	if status != "" {
		path += "?" + url.Values{"status": {status}}.Encode()
	}
	var out []CRMClient
	if err := s.client.doRequest(ctx, "GET", path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
