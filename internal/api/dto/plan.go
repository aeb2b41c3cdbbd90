package dto

import (
	"time"

	"github.com/growen-ao/growen-api/internal/domain/quota"
)

// UpgradeRequest records the intent to move to a paid plan
type UpgradeRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

// CurrentPlanResponse describes the caller's plan and consumption
type CurrentPlanResponse struct {
	Plan                string                 `json:"plan"`
	Name                string                 `json:"name"`
	Price               int64                  `json:"price"`
	Currency            string                 `json:"currency"`
	Limits              map[string]int         `json:"limits"`
	Usage               map[string]quota.Usage `json:"usage"`
	SubscriptionExpires *time.Time             `json:"subscription_expires"`
}
