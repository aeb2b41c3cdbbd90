package dto

import "github.com/growen-ao/growen-api/internal/domain/user"

// AdminUserUpdateRequest changes account flags or the plan
type AdminUserUpdateRequest struct {
	IsActive *bool   `json:"is_active,omitempty"`
	Plan     *string `json:"plan,omitempty"`
	IsAdmin  *bool   `json:"is_admin,omitempty"`
}

// ToUpdate converts the request to a domain update
func (a AdminUserUpdateRequest) ToUpdate() user.AdminUpdate {
	return user.AdminUpdate{
		IsActive: a.IsActive,
		IsAdmin:  a.IsAdmin,
		Plan:     a.Plan,
	}
}

// UsersResponse wraps the admin user listing. Page fields are set only
// when the caller asked for a page.
type UsersResponse struct {
	Users    []*user.User `json:"users"`
	Total    int64        `json:"total"`
	Page     int          `json:"page,omitempty"`
	PageSize int          `json:"page_size,omitempty"`
}

// WhatsAppConfigResponse is the consultation contact shown to users
type WhatsAppConfigResponse struct {
	Number  string `json:"whatsapp_number"`
	Message string `json:"message"`
	Link    string `json:"link"`
}
