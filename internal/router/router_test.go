package router_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/mocks"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/router"
	"github.com/anonto42/nano-midea/engagement/internal/testutil"
	"github.com/anonto42/nano-midea/engagement/pkg/config"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:     "router-secret",
		UserCacheSize: 8,
		UserCacheTTL:  time.Minute,
	}
}

func TestSetupRoutesWithJWT(t *testing.T) {
	cfg := testConfig()
	db := testutil.NewDB(t)
	e := echo.New()
	require.NoError(t, router.SetupRoutes(e, cfg, router.Deps{Postgres: db, Posts: mocks.NewPostRepository()}, logger.Discard()))

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	store := testutil.NewStoreFor(db)
	user := testutil.CreateUser(t, store, "alice")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.JwtCustomClaims{UserID: user.ID}).
		SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/profile", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"alice"`)
}

func TestSetupRoutesRequiresAnIdentityProvider(t *testing.T) {
	cfg := testConfig()
	cfg.JWTSecret = ""
	err := router.SetupRoutes(echo.New(), cfg, router.Deps{Postgres: testutil.NewDB(t), Posts: mocks.NewPostRepository()}, logger.Discard())
	assert.Error(t, err)
}
