package handlers

import (
	stderrors "errors"
	"mime/multipart"
	"net/http"

	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

const multipartOverhead = 1 << 20

// openUpload parses a multipart form capped at maxFile plus form overhead
// and returns the "file" part.
func openUpload(w http.ResponseWriter, r *http.Request, maxFile int64) (multipart.File, *multipart.FileHeader, *errors.AppError) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFile+multipartOverhead)
	if err := r.ParseMultipartForm(maxFile + multipartOverhead); err != nil {
		var maxErr *http.MaxBytesError
		if stderrors.As(err, &maxErr) {
			return nil, nil, errors.BadRequest("Ficheiro demasiado grande")
		}
		return nil, nil, errors.BadRequest("Formulário multipart inválido")
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, nil, errors.BadRequest("Ficheiro em falta")
	}
	return file, header, nil
}
