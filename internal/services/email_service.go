package services

import (
	"context"
	"strings"
	"time"

	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/metrics"
)

// EmailService implements email.Service on top of a job table
type EmailService struct {
	repo        email.Repository
	mailer      email.Mailer
	maxAttempts int
	logger      *logger.Logger
	now         func() time.Time
}

// NewEmailService creates a new email service. Jobs delivered by the
// dispatcher are retried until maxAttempts.
func NewEmailService(repo email.Repository, mailer email.Mailer, maxAttempts int, log *logger.Logger) email.Service {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &EmailService{
		repo:        repo,
		mailer:      mailer,
		maxAttempts: maxAttempts,
		logger:      log,
		now:         time.Now,
	}
}

// Enqueue stores a pending job
func (s *EmailService) Enqueue(ctx context.Context, j *email.Job) (*email.Job, error) {
	j.Status = email.StatusPending
	if err := s.create(ctx, j); err != nil {
		return nil, err
	}
	return j, nil
}

func (s *EmailService) create(ctx context.Context, j *email.Job) error {
	j.ToEmail = strings.TrimSpace(j.ToEmail)
	if j.ToEmail == "" {
		return errors.BadRequest("Destinatário sem email")
	}
	if j.Kind == "" {
		j.Kind = email.KindClient
	}

	if err := s.repo.Create(ctx, j); err != nil {
		s.logger.ErrorWithErr(err, "Failed to create email job")
		return err
	}

	s.logger.WithFields(map[string]interface{}{
		"job_id":  j.ID,
		"user_id": j.UserID,
		"kind":    j.Kind,
		"status":  j.Status,
	}).Debug("Email job stored")
	return nil
}

// SendNow stores the job already claimed and delivers it once. The
// dispatcher never sees it, and a delivery failure leaves it failed.
func (s *EmailService) SendNow(ctx context.Context, j *email.Job) (*email.Job, error) {
	j.Status = email.StatusSending
	j.Attempts = 1
	if err := s.create(ctx, j); err != nil {
		return nil, err
	}
	return s.send(ctx, j, false)
}

// Deliver attempts a stored pending job, requeueing it on failure while
// attempts remain
func (s *EmailService) Deliver(ctx context.Context, id string) (*email.Job, error) {
	claimed, err := s.repo.Claim(ctx, id, s.now())
	if err != nil {
		return nil, err
	}
	j, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return j, nil
	}
	return s.send(ctx, j, true)
}

// send hands a claimed job to the mailer and records the outcome
func (s *EmailService) send(ctx context.Context, j *email.Job, retry bool) (*email.Job, error) {
	sendErr := s.mailer.Send(ctx, email.Message{
		To:      j.ToEmail,
		ToName:  j.ToName,
		Subject: j.Subject,
		Body:    j.Body,
	})

	if sendErr == nil {
		if err := s.repo.MarkSent(ctx, j.ID, s.now()); err != nil {
			return nil, err
		}
		metrics.RecordEmailJob(string(j.Kind), string(email.StatusSent))
		s.logger.WithFields(map[string]interface{}{
			"job_id": j.ID,
			"kind":   j.Kind,
		}).Info("Email sent")
		return s.repo.GetByID(ctx, j.ID)
	}

	again := retry && j.Attempts < s.maxAttempts
	if err := s.repo.MarkFailed(ctx, j.ID, sendErr.Error(), again, s.now()); err != nil {
		return nil, err
	}
	outcome := string(email.StatusFailed)
	if again {
		outcome = "retry"
	}
	metrics.RecordEmailJob(string(j.Kind), outcome)
	s.logger.WithFields(map[string]interface{}{
		"job_id":   j.ID,
		"kind":     j.Kind,
		"attempts": j.Attempts,
		"retry":    again,
	}).ErrorWithErr(sendErr, "Email delivery failed")

	return s.repo.GetByID(ctx, j.ID)
}

// Get returns a job owned by userID
func (s *EmailService) Get(ctx context.Context, userID int64, id string) (*email.Job, error) {
	j, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if j.UserID != userID {
		return nil, errors.NotFound("Email job")
	}
	return j, nil
}

// DispatchPending delivers up to limit pending jobs and returns how many
// were sent
func (s *EmailService) DispatchPending(ctx context.Context, limit int) (int, error) {
	jobs, err := s.repo.ListPending(ctx, limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, j := range jobs {
		if err := ctx.Err(); err != nil {
			return sent, err
		}
		out, err := s.Deliver(ctx, j.ID)
		if err != nil {
			s.logger.WithFields(map[string]interface{}{"job_id": j.ID}).ErrorWithErr(err, "Failed to dispatch email job")
			continue
		}
		if out.Status == email.StatusSent {
			sent++
		}
	}
	return sent, nil
}
