package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoginStoresToken(t *testing.T) {
	var authHeader string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login":
			var req LoginRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "ana@example.ao", req.Email)
			json.NewEncoder(w).Encode(AuthResponse{
				Message: "Login efetuado com sucesso",
				Token:   "tok-123",
				User:    &User{ID: 4, Email: req.Email, Plan: "free"},
			})
		case "/api/auth/me":
			authHeader = r.Header.Get("Authorization")
			json.NewEncoder(w).Encode(User{ID: 4, Email: "ana@example.ao", Plan: "free"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL + "/"})
	ctx := context.Background()

	resp, err := c.Login(ctx, "ana@example.ao", "segredo1")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", c.GetToken())
	assert.Equal(t, int64(4), resp.User.ID)

	me, err := c.GetCurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "free", me.Plan)
	assert.Equal(t, "Bearer tok-123", authHeader)
}

func TestAPIErrorDecoding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"code":"CONFLICT","detail":"Pagamento já foi revisto"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	c.SetToken("admin")
	_, err := c.Payments().Approve(context.Background(), "p-1", "")

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsConflict())
	assert.Equal(t, "Pagamento já foi revisto", apiErr.Detail)
}

func TestAPIErrorPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewClient(Config{BaseURL: srv.URL}).Ping(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, "bad gateway", apiErr.Detail)
}

func TestRejectSendsNotes(t *testing.T) {
	var gotPath string
	var gotBody map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"message":"Pagamento rejeitado","result":{"plan":"free","payment":{"id":"p-9","status":"rejected"}}}`))
	}))
	defer srv.Close()

	res, err := NewClient(Config{BaseURL: srv.URL}).Payments().Reject(context.Background(), "p-9", "valor errado")
	require.NoError(t, err)
	assert.Equal(t, "/api/admin/payments/p-9/reject", gotPath)
	assert.Equal(t, "valor errado", gotBody["notes"])
	assert.Equal(t, "rejected", res.Result.Payment.Status)
}

func TestReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/readyz", r.URL.Path)
		w.Write([]byte(`{"status":"degraded","version":"t","dependencies":{"redis":{"status":"down","latency_ms":2},"database":{"status":"ok","latency_ms":1}}}`))
	}))
	defer srv.Close()

	ready, err := NewClient(Config{BaseURL: srv.URL}).Ready(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "degraded", ready.Status)
	assert.Equal(t, []string{"database", "redis"}, ready.Names())
	assert.Equal(t, "down", ready.Dependencies["redis"].Status)
}

func TestUploadProof(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/payments/upload-proof", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "pro", r.FormValue("plan_id"))
		assert.Equal(t, "TRF-889", r.FormValue("reference_number"))
		_, hasNotes := r.MultipartForm.Value["notes"]
		assert.False(t, hasNotes, "empty fields are not sent")

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		assert.Equal(t, "recibo.pdf", hdr.Filename)
		assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))

		w.Write([]byte(`{"message":"Comprovativo enviado","payment_id":"p-1","status":"pending"}`))
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	c.SetToken("tok")
	res, err := c.Payments().UploadProof(context.Background(), ProofUpload{
		PlanID:          "pro",
		ReferenceNumber: "TRF-889",
		FileName:        "/tmp/recibos/recibo.pdf",
		Body:            strings.NewReader("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.Equal(t, "p-1", res.PaymentID)
	assert.Equal(t, "pending", res.Status)
}

func TestProofDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/admin/payments/p-2/proof", r.URL.Path)
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Disposition", "inline; filename*=utf-8''comprovativo-mar%C3%A7o.png")
		w.Write([]byte("\x89PNG"))
	}))
	defer srv.Close()

	f, err := NewClient(Config{BaseURL: srv.URL}).Payments().Proof(context.Background(), "p-2")
	require.NoError(t, err)
	assert.Equal(t, "comprovativo-março.png", f.Name)
	assert.Equal(t, "image/png", f.ContentType)
	assert.Equal(t, []byte("\x89PNG"), f.Body)
}

func TestAPIErrorHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Request-ID", "req-42")
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"detail":"Demasiados pedidos. Tente novamente mais tarde.","code":"RATE_LIMITED"}`))
	}))
	defer srv.Close()

	_, err := NewClient(Config{BaseURL: srv.URL}).Plans().Available(context.Background())

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsRateLimited())
	assert.Equal(t, 3*time.Second, apiErr.RetryAfter)
	assert.Equal(t, "req-42", apiErr.RequestID)
	assert.Contains(t, apiErr.Error(), "request_id=req-42")
}

func TestUsersFilterQuery(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"users":[{"id":2,"email":"pedro@oficina.ao","plan":"starter"}],"total":1}`))
	}))
	defer srv.Close()

	inactive := false
	users, err := NewClient(Config{BaseURL: srv.URL}).Admin().Users(context.Background(),
		UserFilter{Plan: "starter", Active: &inactive})
	require.NoError(t, err)
	assert.Equal(t, "active=false&plan=starter", gotQuery)
	require.Len(t, users, 1)
	assert.Equal(t, "pedro@oficina.ao", users[0].Email)
}
