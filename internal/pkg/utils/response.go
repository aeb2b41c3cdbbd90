package utils

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

// MessageResponse is the body of endpoints that only acknowledge an action
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the body of every error reply
type ErrorResponse struct {
	Detail  string      `json:"detail"`
	Code    string      `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(data)
}

// WriteMessage writes {"message": msg}
func WriteMessage(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, MessageResponse{Message: message})
}

// WriteError writes an error JSON response from AppError
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	return WriteJSON(w, err.StatusCode, ErrorResponse{
		Detail:  err.Message,
		Code:    err.Code,
		Details: err.Details,
	})
}

// WriteErrorMessage writes a simple error message
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, ErrorResponse{
		Detail: message,
		Code:   code,
	})
}

// WriteAttachment sends body as a downloadable file
func WriteAttachment(w http.ResponseWriter, contentType, filename string, body []byte) error {
	return StreamFile(w, contentType, ContentDisposition("attachment", filename), int64(len(body)), bytes.NewReader(body))
}

// StreamFile copies body to w with the given headers. size <= 0 omits
// Content-Length.
func StreamFile(w http.ResponseWriter, contentType, disposition string, size int64, body io.Reader) error {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", disposition)
	if size > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
	}
	w.WriteHeader(http.StatusOK)
	_, err := io.Copy(w, body)
	return err
}

// ContentDisposition formats an inline or attachment header. Uploaded proof
// names often carry accents, which get the RFC 2231 filename* form.
func ContentDisposition(kind, filename string) string {
	filename = strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r < 0x20 {
			return '_'
		}
		return r
	}, filename)
	if filename == "" {
		filename = "ficheiro"
	}
	if v := mime.FormatMediaType(kind, map[string]string{"filename": filename}); v != "" {
		return v
	}
	return kind
}
