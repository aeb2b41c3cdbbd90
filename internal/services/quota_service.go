package services

import (
	"context"

	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/quota"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/metrics"
)

// QuotaService implements quota.Gate against the plan catalog.
//
// Enforce reads usage and the caller then writes; the two steps are not
// atomic, so concurrent creates may overshoot a limit.
type QuotaService struct {
	catalog *plan.Catalog
	counter quota.Counter
	users   user.Repository
	logger  *logger.Logger
}

// NewQuotaService creates a new quota gate
func NewQuotaService(catalog *plan.Catalog, counter quota.Counter, users user.Repository, log *logger.Logger) quota.Gate {
	return &QuotaService{
		catalog: catalog,
		counter: counter,
		users:   users,
		logger:  log,
	}
}

// check returns the limit and usage of f for the user. ok is false when the
// user does not exist; a plan missing from the catalog is an internal error.
func (s *QuotaService) check(ctx context.Context, userID int64, f plan.Feature) (planID string, limit, used int, ok bool, err error) {
	if !f.IsValid() {
		return "", 0, 0, false, errors.BadRequest("Funcionalidade desconhecida")
	}

	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return "", 0, 0, false, nil
		}
		return "", 0, 0, false, err
	}

	limit, err = s.catalog.Limit(u.Plan, f)
	if err != nil {
		s.logger.WithFields(map[string]interface{}{
			"user_id": userID,
			"plan":    u.Plan,
		}).ErrorWithErr(err, "User has a plan missing from the catalog")
		return u.Plan, 0, 0, false, errors.Internal("Plano do utilizador desconhecido", err)
	}
	if limit == plan.Unlimited {
		return u.Plan, limit, 0, true, nil
	}

	used, err = s.counter.Count(ctx, userID, f)
	if err != nil {
		return u.Plan, limit, 0, false, err
	}
	return u.Plan, limit, used, true, nil
}

// Allow reports whether the user may consume one more unit of f
func (s *QuotaService) Allow(ctx context.Context, userID int64, f plan.Feature) (bool, error) {
	_, limit, used, ok, err := s.check(ctx, userID, f)
	if err != nil || !ok {
		return false, err
	}
	return limit == plan.Unlimited || used < limit, nil
}

// Enforce returns QUOTA_EXCEEDED when the user is at or over the limit
func (s *QuotaService) Enforce(ctx context.Context, userID int64, f plan.Feature) error {
	planID, limit, used, ok, err := s.check(ctx, userID, f)
	if err != nil {
		return err
	}
	if ok && (limit == plan.Unlimited || used < limit) {
		return nil
	}

	metrics.RecordQuotaDenial(f.String(), planID)
	s.logger.WithFields(map[string]interface{}{
		"user_id": userID,
		"feature": f.String(),
		"plan":    planID,
		"used":    used,
		"limit":   limit,
	}).Info("Quota exceeded")
	return errors.QuotaExceeded(f.String(), limit)
}

// Snapshot returns usage of every feature under the user's current plan
func (s *QuotaService) Snapshot(ctx context.Context, userID int64) (map[plan.Feature]quota.Usage, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.catalog.Get(u.Plan)
	if err != nil {
		return nil, errors.Internal("Plano do utilizador desconhecido", err)
	}

	out := make(map[plan.Feature]quota.Usage, len(plan.Features))
	for _, f := range plan.Features {
		used, err := s.counter.Count(ctx, userID, f)
		if err != nil {
			return nil, err
		}
		out[f] = quota.Usage{Feature: f, Used: used, Limit: p.Limit(f)}
	}
	return out, nil
}
