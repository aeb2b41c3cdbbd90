package services

import (
	"context"
	"fmt"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/metrics"
)

// SubscriptionService downgrades paid accounts whose period has ended
type SubscriptionService struct {
	users  user.Repository
	emails email.Service
	logger *logger.Logger
	now    func() time.Time
}

// NewSubscriptionService creates a new subscription service
func NewSubscriptionService(users user.Repository, emails email.Service, log *logger.Logger) *SubscriptionService {
	return &SubscriptionService{
		users:  users,
		emails: emails,
		logger: log,
		now:    time.Now,
	}
}

// ExpireDue moves every expired paid user back to the free plan and queues
// a notice. It returns how many accounts were downgraded.
func (s *SubscriptionService) ExpireDue(ctx context.Context) (int, error) {
	now := s.now().UTC()
	expired, err := s.users.ListExpired(ctx, now)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, u := range expired {
		if err := ctx.Err(); err != nil {
			return n, err
		}
		previous := u.Plan
		downgraded, err := s.users.DowngradeExpired(ctx, u.ID, now)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{"user_id": u.ID}).ErrorWithErr(err, "Failed to downgrade expired subscription")
			continue
		}
		if !downgraded {
			// renewed since the listing
			continue
		}
		n++
		metrics.RecordSubscriptionExpired()

		s.logger.WithFields(map[string]interface{}{
			"user_id":  u.ID,
			"previous": previous,
		}).Info("Subscription expired")

		_, err = s.emails.Enqueue(ctx, &email.Job{
			UserID:  u.ID,
			Kind:    email.KindExpiry,
			ToEmail: u.Email,
			ToName:  u.Name,
			Subject: "A sua subscrição Growen expirou",
			Body: fmt.Sprintf("Olá %s,\n\nA sua subscrição do plano %s terminou e a conta voltou ao plano Gratuito. "+
				"Para renovar, escolha um plano e envie o comprovativo de transferência.\n\nEquipa Growen", u.Name, previous),
		})
		if err != nil {
			s.logger.ErrorWithErr(err, "Failed to queue expiry email")
		}
	}
	return n, nil
}
