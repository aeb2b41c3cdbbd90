package utils

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// MaxJSONBodyBytes caps request bodies decoded by DecodeJSON
const MaxJSONBodyBytes = 1 << 20

// DecodeJSON decodes the request body into dst. Unknown fields, trailing
// data and oversized bodies are rejected.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) *errors.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, MaxJSONBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		var maxErr *http.MaxBytesError

		switch {
		case stderrors.Is(err, io.EOF):
			return errors.BadRequest("Corpo da requisição vazio")
		case stderrors.As(err, &syntaxErr):
			return errors.BadRequest(fmt.Sprintf("JSON inválido na posição %d", syntaxErr.Offset))
		case stderrors.As(err, &typeErr):
			return errors.BadRequest(fmt.Sprintf("Tipo inválido para o campo %q", typeErr.Field))
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			field := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return errors.BadRequest(fmt.Sprintf("Campo desconhecido %s", field)).
				WithDetails(map[string]string{"field": strings.Trim(field, `"`)})
		case stderrors.As(err, &maxErr):
			return errors.BadRequest("Corpo da requisição muito grande")
		default:
			return errors.BadRequest("Corpo da requisição inválido")
		}
	}

	if dec.More() {
		return errors.BadRequest("O corpo deve conter um único objeto JSON")
	}
	return nil
}

// DecodeOptionalJSON behaves like DecodeJSON but accepts an empty body
func DecodeOptionalJSON(w http.ResponseWriter, r *http.Request, dst interface{}) *errors.AppError {
	if r.Body == nil || r.ContentLength == 0 {
		return nil
	}
	return DecodeJSON(w, r, dst)
}
