package handlers

import (
	"net/http"
	"time"

	"github.com/growen-ao/growen-api/internal/api/dto"
	"github.com/growen-ao/growen-api/internal/api/middleware"
	"github.com/growen-ao/growen-api/internal/auth"
	"github.com/growen-ao/growen-api/internal/config"
	"github.com/growen-ao/growen-api/internal/domain/user"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
)

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	userService user.Service
	denylist    auth.Denylist
	config      *config.Config
	logger      *logger.Logger
	validator   *validator.Validator
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(
	userService user.Service,
	denylist auth.Denylist,
	cfg *config.Config,
	log *logger.Logger,
	val *validator.Validator,
) *AuthHandler {
	return &AuthHandler{
		userService: userService,
		denylist:    denylist,
		config:      cfg,
		logger:      log,
		validator:   val,
	}
}

// Register handles user registration
// @Summary User registration
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "Registration details"
// @Success 200 {object} dto.AuthResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	newUser, err := h.userService.Register(r.Context(), user.Registration{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
		Company:  req.Company,
		Phone:    req.Phone,
		Industry: req.Industry,
	})
	if err != nil {
		handleError(w, h.logger, err, "Failed to register user")
		return
	}

	h.issueToken(w, newUser, "Conta criada com sucesso")
}

// Login handles user login
// @Summary User login
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.AuthResponse
// @Failure 401 {object} utils.ErrorResponse "Invalid credentials"
// @Router /auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	authenticated, err := h.userService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.logger.WithFields(map[string]interface{}{
			"email": logger.MaskEmail(req.Email),
		}).Warn("Authentication failed")
		handleError(w, h.logger, err, "Failed to authenticate user")
		return
	}

	h.issueToken(w, authenticated, "Login efetuado com sucesso")
}

func (h *AuthHandler) issueToken(w http.ResponseWriter, u *user.User, message string) {
	token, err := auth.MintToken(u.ID, u.Email, h.config.Auth.JWTSecret, h.config.Auth.AccessTokenExpiry)
	if err != nil {
		handleError(w, h.logger, err, "Failed to generate token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    token.AccessToken,
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   int(h.config.Auth.AccessTokenExpiry.Seconds()),
	})

	h.logger.WithFields(map[string]interface{}{
		"user_id": u.ID,
	}).Info("Access token issued")

	utils.WriteJSON(w, http.StatusOK, dto.AuthResponse{
		Message: message,
		Token:   token.AccessToken,
		User:    u,
	})
}

// Logout revokes the current token until it would have expired
// @Summary User logout
// @Tags Auth
// @Success 200 {object} utils.MessageResponse
// @Security BearerAuth
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if jti, exp, ok := middleware.GetToken(r); ok && h.denylist != nil {
		if err := h.denylist.Add(r.Context(), jti, time.Until(exp)); err != nil {
			h.logger.ErrorWithErr(err, "Failed to revoke token")
			utils.WriteError(w, errors.ServiceUnavailable("Não foi possível terminar a sessão"))
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.AccessTokenCookie,
		Value:    "",
		HttpOnly: true,
		Secure:   h.config.Server.Environment == "production",
		SameSite: http.SameSiteLaxMode,
		Path:     "/",
		MaxAge:   -1,
	})

	utils.WriteMessage(w, http.StatusOK, "Sessão terminada com sucesso")
}

// Me returns the current user's profile and plan
// @Summary Get current user
// @Tags Auth
// @Produce json
// @Success 200 {object} user.User
// @Failure 401 {object} utils.ErrorResponse
// @Security BearerAuth
// @Router /auth/me [get]
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	u, err := h.userService.GetByID(r.Context(), userID)
	if err != nil {
		handleError(w, h.logger, err, "Failed to get user")
		return
	}

	utils.WriteJSON(w, http.StatusOK, u)
}

// UpdateProfile changes name, company, phone or industry
// @Summary Update profile
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.ProfileRequest true "Profile fields"
// @Success 200 {object} user.User
// @Security BearerAuth
// @Router /auth/profile [put]
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.ProfileRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	u, err := h.userService.UpdateProfile(r.Context(), userID, req.ToUpdate())
	if err != nil {
		handleError(w, h.logger, err, "Failed to update profile")
		return
	}

	utils.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Perfil atualizado com sucesso",
		"user":    u,
	})
}

// ChangePassword replaces the password after checking the current one
// @Summary Change password
// @Tags Auth
// @Accept json
// @Param request body dto.ChangePasswordRequest true "Passwords"
// @Success 200 {object} utils.MessageResponse
// @Security BearerAuth
// @Router /auth/change-password [post]
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req dto.ChangePasswordRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.userService.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		handleError(w, h.logger, err, "Failed to change password")
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Palavra-passe alterada com sucesso")
}

// ForgotPassword always answers 200 so addresses cannot be probed
// @Summary Request a password reset
// @Tags Auth
// @Accept json
// @Param request body dto.ForgotPasswordRequest true "Email"
// @Success 200 {object} utils.MessageResponse
// @Router /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ForgotPasswordRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.userService.RequestPasswordReset(r.Context(), req.Email); err != nil {
		h.logger.ErrorWithErr(err, "Failed to start password reset")
	}

	utils.WriteMessage(w, http.StatusOK,
		"Se o email estiver registado, receberá instruções para redefinir a palavra-passe")
}

// VerifyResetToken reports whether a reset link is still usable
// @Summary Verify a reset token
// @Tags Auth
// @Param token path string true "Reset token"
// @Success 200 {object} dto.VerifyResetResponse
// @Router /auth/verify-reset-token/{token} [get]
func (h *AuthHandler) VerifyResetToken(w http.ResponseWriter, r *http.Request) {
	valid, err := h.userService.VerifyResetToken(r.Context(), pathID(r, "token"))
	if err != nil {
		handleError(w, h.logger, err, "Failed to verify reset token")
		return
	}

	resp := dto.VerifyResetResponse{Valid: valid, Message: "Token válido"}
	if !valid {
		resp.Message = "Token inválido ou expirado"
	}
	utils.WriteJSON(w, http.StatusOK, resp)
}

// ResetPassword sets a new password using a reset token
// @Summary Reset password
// @Tags Auth
// @Accept json
// @Param request body dto.ResetPasswordRequest true "Token and new password"
// @Success 200 {object} utils.MessageResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req dto.ResetPasswordRequest
	if !decodeBody(w, r, h.validator, &req) {
		return
	}

	if err := h.userService.ResetPassword(r.Context(), req.Token, req.NewPassword); err != nil {
		handleError(w, h.logger, err, "Failed to reset password")
		return
	}

	utils.WriteMessage(w, http.StatusOK, "Palavra-passe redefinida com sucesso")
}
