package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// AdminService handles administration API calls
type AdminService struct {
	client *Client
}

// UserUpdate changes account flags or the plan. Nil fields are unchanged.
type UserUpdate struct {
	IsActive *bool   `json:"is_active,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
	Plan     *string `json:"plan,omitempty"`
}

// UserFilter narrows the account listing. Zero values match everything.
type UserFilter struct {
	Plan   string
	Active *bool
}

func (f UserFilter) query() string {
	q := url.Values{}
	if f.Plan != "" {
		q.Set("plan", f.Plan)
	}
	if f.Active != nil {
		q.Set("active", strconv.FormatBool(*f.Active))
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// Users lists the accounts matching filter
func (s *AdminService) Users(ctx context.Context, filter UserFilter) ([]User, error) {
	var resp struct {
		Users []User `json:"users"`
		Total int64  `json:"total"`
	}
	if err := s.client.doRequest(ctx, "GET", "/api/admin/users/all"+filter.query(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// UpdateUser applies upd to the account with the given id
func (s *AdminService) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	var resp struct {
		User *User `json:"user"`
	}
	if err := s.client.doRequest(ctx, "PUT", fmt.Sprintf("/api/admin/users/%d", id), upd, &resp); err != nil {
		return nil, err
	}
	return resp.User, nil
}

// Overview returns the platform dashboard counters
func (s *AdminService) Overview(ctx context.Context) (map[string]interface{}, error) {
	var out map[string]interface{}
	if err := s.client.doRequest(ctx, "GET", "/api/admin/dashboard/overview", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
