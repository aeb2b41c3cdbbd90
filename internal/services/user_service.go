package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/growen-ao/growen-api/internal/auth"
	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/email"
	"github.com/growen-ao/growen-api/internal/domain/plan"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

// UserService implements user.Service
type UserService struct {
	repo        user.Repository
	emails      email.Service
	cfg         config.AuthConfig
	frontendURL string
	logger      *logger.Logger
	now         func() time.Time
}

// NewUserService creates a new user service
func NewUserService(repo user.Repository, emails email.Service, cfg config.AuthConfig, frontendURL string, log *logger.Logger) user.Service {
	return &UserService{
		repo:        repo,
		emails:      emails,
		cfg:         cfg,
		frontendURL: strings.TrimSuffix(frontendURL, "/"),
		logger:      log,
		now:         time.Now,
	}
}

// Register creates an account on the free plan
func (s *UserService) Register(ctx context.Context, reg user.Registration) (*user.User, error) {
	hash, err := auth.HashPassword(reg.Password, s.cfg.BCryptCost)
	if err != nil {
		return nil, errors.Internal("Falha ao processar a senha", err)
	}

	u := &user.User{
		Email:        reg.Email,
		Name:         strings.TrimSpace(reg.Name),
		PasswordHash: hash,
		Company:      reg.Company,
		Phone:        reg.Phone,
		Industry:     reg.Industry,
		Plan:         plan.Free,
		IsActive:     true,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	s.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
		"email":   logger.MaskEmail(u.Email),
	}).Info("User registered")

	_, err = s.emails.Enqueue(ctx, &email.Job{
		UserID:  u.ID,
		Kind:    email.KindWelcome,
		ToEmail: u.Email,
		ToName:  u.Name,
		Subject: "Bem-vindo à Growen",
		Body: fmt.Sprintf("Olá %s,\n\nA sua conta Growen foi criada no plano Gratuito. "+
			"Pode começar já a registar clientes e a conversar com o consultor de IA.\n\nEquipa Growen", u.Name),
	})
	if err != nil {
		s.logger.ErrorWithErr(err, "Failed to queue welcome email")
	}

	return u, nil
}

// Authenticate checks credentials and returns the active account
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*user.User, error) {
	u, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.Unauthorized("Credenciais inválidas")
		}
		return nil, err
	}
	if !auth.CheckPassword(u.PasswordHash, password) {
		return nil, errors.Unauthorized("Credenciais inválidas")
	}
	if !u.IsActive {
		return nil, errors.Unauthorized("Conta desativada")
	}
	return u, nil
}

// GetByID retrieves a user by ID
func (s *UserService) GetByID(ctx context.Context, id int64) (*user.User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a user by email
func (s *UserService) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.repo.GetByEmail(ctx, email)
}

// UpdateProfile applies the non-nil fields of upd
func (s *UserService) UpdateProfile(ctx context.Context, id int64, upd user.ProfileUpdate) (*user.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		u.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Company != nil {
		u.Company = *upd.Company
	}
	if upd.Phone != nil {
		u.Phone = *upd.Phone
	}
	if upd.Industry != nil {
		u.Industry = *upd.Industry
	}

	if err := s.repo.Update(ctx, u); err != nil {
		s.logger.ErrorWithErr(err, "Failed to update profile")
		return nil, err
	}
	return u, nil
}

// ChangePassword replaces the password after checking the current one
func (s *UserService) ChangePassword(ctx context.Context, id int64, current, next string) error {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(u.PasswordHash, current) {
		return errors.BadRequest("Senha atual incorreta")
	}

	hash, err := auth.HashPassword(next, s.cfg.BCryptCost)
	if err != nil {
		return errors.Internal("Falha ao processar a senha", err)
	}
	u.PasswordHash = hash
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{"user_id": id}).Info("Password changed")
	return nil
}

// RequestPasswordReset stores a hashed one-hour token and queues the link
func (s *UserService) RequestPasswordReset(ctx context.Context, addr string) error {
	u, err := s.repo.GetByEmail(ctx, addr)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil
		}
		return err
	}

	token, hash, err := auth.NewResetToken()
	if err != nil {
		return errors.Internal("Falha ao gerar token", err)
	}
	expires := s.now().UTC().Add(s.cfg.ResetTokenExpiry)
	u.ResetTokenHash = hash
	u.ResetTokenExpires = &expires
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)
	_, err = s.emails.Enqueue(ctx, &email.Job{
		UserID:  u.ID,
		Kind:    email.KindReset,
		ToEmail: u.Email,
		ToName:  u.Name,
		Subject: "Redefinição de senha - Growen",
		Body: fmt.Sprintf("Olá %s,\n\nRecebemos um pedido para redefinir a sua senha. "+
			"Use o link abaixo nos próximos 60 minutos:\n\n%s\n\n"+
			"Se não fez este pedido, ignore este email.\n\nEquipa Growen", u.Name, link),
	})
	if err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{"user_id": u.ID}).Info("Password reset requested")
	return nil
}

// VerifyResetToken reports whether token is known and unexpired
func (s *UserService) VerifyResetToken(ctx context.Context, token string) (bool, error) {
	if token == "" {
		return false, nil
	}
	_, err := s.repo.GetByResetTokenHash(ctx, auth.HashResetToken(token), s.now().UTC())
	if err != nil {
		if errors.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ResetPassword sets a new password and consumes the token
func (s *UserService) ResetPassword(ctx context.Context, token, newPassword string) error {
	u, err := s.repo.GetByResetTokenHash(ctx, auth.HashResetToken(token), s.now().UTC())
	if err != nil {
		if errors.IsNotFound(err) {
			return errors.BadRequest("Token inválido ou expirado")
		}
		return err
	}

	hash, err := auth.HashPassword(newPassword, s.cfg.BCryptCost)
	if err != nil {
		return errors.Internal("Falha ao processar a senha", err)
	}
	u.PasswordHash = hash
	u.ResetTokenHash = ""
	u.ResetTokenExpires = nil
	if err := s.repo.Update(ctx, u); err != nil {
		return err
	}

	s.logger.WithFields(map[string]interface{}{"user_id": u.ID}).Info("Password reset")
	return nil
}
