package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anonto42/nano-midea/engagement/internal/middleware"
	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/testutil"
	"github.com/anonto42/nano-midea/engagement/pkg/logger"
)

const secret = "test-secret"

func signed(t *testing.T, key string, userID uint, expiresAt time.Time) string {
	t.Helper()
	claims := &models.JwtCustomClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return token
}

// serve runs mw in front of a handler that echoes the resolved user ID.
func serve(mw echo.MiddlewareFunc, authHeader string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set(echo.HeaderAuthorization, authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	err := mw(func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"user_id": c.Get(middleware.UserIDKey)})
	})(c)
	return rec, err
}

func statusOf(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	require.True(t, errors.As(err, &he), "expected an *echo.HTTPError, got %v", err)
	return he.Code
}

func TestJWTAuthMiddleware(t *testing.T) {
	mw := middleware.JWTAuthMiddleware(secret)
	future := time.Now().Add(time.Hour)

	t.Run("valid token", func(t *testing.T) {
		rec, err := serve(mw, "Bearer "+signed(t, secret, 42, future))
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"user_id":42}`, rec.Body.String())
	})

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"wrong key", "Bearer " + signed(t, "other", 42, future)},
		{"expired", "Bearer " + signed(t, secret, 42, time.Now().Add(-time.Hour))},
		{"no user", "Bearer " + signed(t, secret, 0, future)},
		{"garbage", "Bearer not.a.jwt"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := serve(mw, tt.header)
			assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
		})
	}
}

type stubVerifier map[string]*auth.Token

func (v stubVerifier) VerifyIDToken(_ context.Context, idToken string) (*auth.Token, error) {
	if token, ok := v[idToken]; ok {
		return token, nil
	}
	return nil, errors.New("token has expired")
}

func TestFirebaseAuthMiddlewareProvisionsUsers(t *testing.T) {
	store := testutil.NewStore(t)
	verifier := stubVerifier{
		"good": {UID: "uid-1", Claims: map[string]interface{}{"name": "Alice", "email": "alice@example.com"}},
	}
	mw := middleware.FirebaseAuthMiddleware(verifier, store.Users(), logger.Discard())

	rec, err := serve(mw, "Bearer good")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, rec.Code)

	user, err := store.Users().GetUserByFirebaseUID(context.Background(), "uid-1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", user.Name)
	require.NotNil(t, user.Email)
	assert.Equal(t, "alice@example.com", *user.Email)
	assert.True(t, user.Active)

	// A second request resolves to the same row.
	rec, err = serve(mw, "Bearer good")
	require.NoError(t, err)
	assert.Contains(t, rec.Body.String(), `"user_id":1`)
	assert.Equal(t, uint(1), user.ID)

	_, err = serve(mw, "Bearer expired")
	assert.Equal(t, http.StatusUnauthorized, statusOf(t, err))
}
