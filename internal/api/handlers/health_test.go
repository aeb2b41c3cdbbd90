package handlers

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/growen-ao/growen-api/internal/pkg/logger"
)

func TestHealthz(t *testing.T) {
	h := NewHealthHandler(nil, "1.2.3", logger.Nop())

	rec := httptest.NewRecorder()
	h.Healthz(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "growen-api", body["service"])
	assert.Equal(t, "1.2.3", body["version"])
}

func TestReadyz(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
	}{
		{name: "database up", wantStatus: http.StatusOK},
		{name: "database down", pingErr: stderrors.New("connection refused"), wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer db.Close()

			ping := mock.ExpectPing()
			if tt.pingErr != nil {
				ping.WillReturnError(tt.pingErr)
			}

			h := NewHealthHandler(db, "test", logger.Nop())
			rec := httptest.NewRecorder()
			h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.pingErr != nil {
				assert.Contains(t, rec.Body.String(), "Base de dados indisponível")
				assert.NotContains(t, rec.Body.String(), "connection refused")
			} else {
				var body ReadinessResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, "ready", body.Status)
				assert.Equal(t, "ok", body.Dependencies["database"].Status)
				assert.NotContains(t, body.Dependencies, "redis")
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReadyz_RedisDegrades(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()
	mock.ExpectPing()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	h := NewHealthHandler(db, "test", logger.Nop()).WithRedis(client)
	read := func() ReadinessResponse {
		rec := httptest.NewRecorder()
		h.Readyz(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		var body ReadinessResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		return body
	}

	body := read()
	assert.Equal(t, "ready", body.Status)
	assert.Equal(t, "ok", body.Dependencies["redis"].Status)

	mr.Close()
	body = read()
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "down", body.Dependencies["redis"].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
