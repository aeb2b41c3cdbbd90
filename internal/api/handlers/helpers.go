package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/growen-ao/growen-api/internal/api/middleware"
	"github.com/growen-ao/growen-api/internal/pkg/errors"
	"github.com/growen-ao/growen-api/internal/pkg/logger"
	"github.com/growen-ao/growen-api/internal/pkg/utils"
	"github.com/growen-ao/growen-api/internal/pkg/validator"
)

const internalErrorMessage = "Erro interno do servidor"

// handleError writes err to the client. AppErrors pass through unchanged;
// anything else becomes a generic 500. Server-side failures are logged.
func handleError(w http.ResponseWriter, log *logger.Logger, err error, msg string) {
	if appErr, ok := errors.As(err); ok {
		if appErr.StatusCode >= http.StatusInternalServerError {
			log.ErrorWithErr(err, msg)
		}
		utils.WriteError(w, appErr)
		return
	}
	log.ErrorWithErr(err, msg)
	utils.WriteError(w, errors.Internal(internalErrorMessage, err))
}

// currentUser returns the authenticated caller or writes a 401
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		utils.WriteError(w, errors.Unauthorized("Não autenticado"))
		return 0, false
	}
	return userID, true
}

// decodeBody strictly decodes and validates a JSON body into dst. It
// writes the error response itself and reports whether to continue.
func decodeBody(w http.ResponseWriter, r *http.Request, v *validator.Validator, dst interface{}) bool {
	if appErr := utils.DecodeJSON(w, r, dst); appErr != nil {
		utils.WriteError(w, appErr)
		return false
	}
	return validateBody(w, v, dst)
}

// decodeOptionalBody is decodeBody for endpoints whose body may be empty
func decodeOptionalBody(w http.ResponseWriter, r *http.Request, v *validator.Validator, dst interface{}) bool {
	if appErr := utils.DecodeOptionalJSON(w, r, dst); appErr != nil {
		utils.WriteError(w, appErr)
		return false
	}
	return validateBody(w, v, dst)
}

func validateBody(w http.ResponseWriter, v *validator.Validator, dst interface{}) bool {
	if errs := v.Validate(dst); len(errs) > 0 {
		utils.WriteError(w, errors.ValidationError("Dados inválidos", errs))
		return false
	}
	return true
}

func pathID(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
