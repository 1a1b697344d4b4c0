package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aussiebroadwan/staffroom/internal/api/domain"
	"github.com/aussiebroadwan/staffroom/internal/api/service"
	"github.com/aussiebroadwan/staffroom/internal/api/store/drivers/memory"
	"github.com/aussiebroadwan/staffroom/internal/api/store/drivers/sqlite"
	"github.com/aussiebroadwan/staffroom/pkg/jwtx"
	"github.com/stretchr/testify/require"
)

const (
	testAdminEmail    = "admin@test.com"
	testAdminPassword = "Admin#2024!"
	testUserEmail     = "user@test.com"
	testUserPassword  = "User#2024!"
)

// newTestRouter builds a fully wired router over an in-memory database
// seeded with one admin and one regular user. Each call gets fresh rate
// limiter pools, so tests stay under the strict login limit as long as
// they keep their own login count low.
func newTestRouter(t *testing.T) *Router {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userService := &service.UserService{Store: st}
	require.NoError(t, userService.EnsureSeedUsers(t.Context(), logger, []service.SeedUser{
		{Email: testAdminEmail, Password: testAdminPassword, Role: domain.RoleAdmin},
		{Email: testUserEmail, Password: testUserPassword, Role: domain.RoleUser},
	}))

	codec, err := jwtx.NewCodec([]byte("0123456789abcdef0123456789abcdef"), "staffroom-api", "staffroom")
	require.NoError(t, err)

	r := NewRouter(codec, "test", st, logger)
	r.UserService = userService
	r.SessionService = &service.SessionService{
		Codec:      codec,
		Tokens:     memory.NewRefreshTokenStore(),
		Roles:      userService,
		AccessTTL:  20 * time.Minute,
		RefreshTTL: 7 * 24 * time.Hour,
	}
	r.EmployeeService = &service.EmployeeService{Store: st}
	r.ApplyRoutes()
	return r
}

func doJSON(t *testing.T, router *Router, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		buf = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func login(t *testing.T, router *Router, email, password string) LoginResult {
	t.Helper()

	rec := doJSON(t, router, http.MethodPost, "/api/account/login", "", map[string]string{
		"email": email, "password": password,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var result LoginResult
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&result))
	require.True(t, result.Successful)
	return result
}
