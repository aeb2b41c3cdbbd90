package quota

import (
	"context"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/plan"
)

// MonthStart returns the first instant of t's month in UTC
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Since returns the lower bound used to count f at time now. Features that
// are not monthly are counted from the zero time.
func Since(f plan.Feature, now time.Time) time.Time {
	if f.Monthly() {
		return MonthStart(now)
	}
	return time.Time{}
}

// Counter reports how many units of a feature a user has consumed
type Counter interface {
	// Count returns usage of f for the user inside the feature's window
	Count(ctx context.Context, userID int64, f plan.Feature) (int, error)
}

// Usage is a snapshot of one feature for one user
type Usage struct {
	Feature plan.Feature `json:"feature"`
	Used    int          `json:"used"`
	Limit   int          `json:"limit"`
}

// Remaining returns units left, or -1 when unlimited
func (u Usage) Remaining() int {
	if u.Limit == plan.Unlimited {
		return plan.Unlimited
	}
	if r := u.Limit - u.Used; r > 0 {
		return r
	}
	return 0
}

// Gate decides whether a user may consume one more unit of a feature.
//
// Check and the write that follows are not atomic: two concurrent creates
// can both observe usage < limit and both succeed, so a plan limit can be
// exceeded by the number of racing requests.
type Gate interface {
	// Allow reports whether one more unit of f is permitted. A user that
	// does not exist is denied without error.
	Allow(ctx context.Context, userID int64, f plan.Feature) (bool, error)

	// Enforce returns a QUOTA_EXCEEDED AppError when Allow is false
	Enforce(ctx context.Context, userID int64, f plan.Feature) error

	// Snapshot returns usage of every feature for the user's current plan
	Snapshot(ctx context.Context, userID int64) (map[plan.Feature]Usage, error)
}
