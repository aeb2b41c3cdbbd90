package utils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/growen-ao/growen-api/internal/pkg/errors"
)

func TestContentDisposition(t *testing.T) {
	tests := []struct {
		kind, name string
		want       string
	}{
		{"attachment", "fatura-FT2026-0001.pdf", "attachment; filename=fatura-FT2026-0001.pdf"},
		{"inline", "comprovativo maio.pdf", `inline; filename="comprovativo maio.pdf"`},
		{"inline", "comprovativo-março.pdf", "inline; filename*=utf-8''comprovativo-mar%C3%A7o.pdf"},
		{"attachment", "../../etc/passwd", "attachment; filename=.._.._etc_passwd"},
		{"attachment", "", "attachment; filename=ficheiro"},
	}
	for _, tt := range tests {
		if got := ContentDisposition(tt.kind, tt.name); got != tt.want {
			t.Errorf("ContentDisposition(%q, %q) = %q, want %q", tt.kind, tt.name, got, tt.want)
		}
	}
}

func TestWriteAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := WriteAttachment(rec, "application/pdf", "relatorio.pdf", []byte("%PDF-1.3")); err != nil {
		t.Fatalf("WriteAttachment() error = %v", err)
	}
	if rec.Header().Get("Content-Length") != "8" || rec.Header().Get("Content-Type") != "application/pdf" {
		t.Errorf("headers = %v", rec.Header())
	}
	if rec.Body.String() != "%PDF-1.3" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestStreamFile_UnknownSize(t *testing.T) {
	rec := httptest.NewRecorder()
	if err := StreamFile(rec, "image/png", "inline", 0, strings.NewReader("png")); err != nil {
		t.Fatalf("StreamFile() error = %v", err)
	}
	if rec.Header().Get("Content-Length") != "" {
		t.Error("Content-Length set for unknown size")
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, errors.QuotaExceeded("clients", 10))

	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
	var body ErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Code != "QUOTA_EXCEEDED" || !strings.Contains(body.Detail, "clients") {
		t.Errorf("body = %+v", body)
	}
}
