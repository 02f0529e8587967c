package middleware

import (
	"context"
	"errors"
	"net/http"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/anonto42/nano-midea/engagement/internal/models"
	"github.com/anonto42/nano-midea/engagement/internal/repositories"
)

// TokenVerifier verifies Firebase ID tokens. *auth.Client implements it.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// FirebaseAuthMiddleware verifies Firebase ID tokens and resolves the caller to a local
// user, creating one on first sight from the token's name and email claims.
func FirebaseAuthMiddleware(verifier TokenVerifier, users repositories.UserRepository, log logrus.FieldLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			idToken, err := bearerToken(c)
			if err != nil {
				return err
			}

			ctx := c.Request().Context()
			token, err := verifier.VerifyIDToken(ctx, idToken)
			if err != nil {
				return echo.NewHTTPError(http.StatusUnauthorized, "Invalid or expired ID token")
			}

			user, err := provision(ctx, users, token)
			if err != nil {
				log.WithError(err).WithField("firebase_uid", token.UID).Error("resolve firebase user")
				return echo.NewHTTPError(http.StatusInternalServerError, "Could not resolve user")
			}

			c.Set("firebaseUID", token.UID)
			c.Set(UserIDKey, user.ID)
			return next(c)
		}
	}
}

func provision(ctx context.Context, users repositories.UserRepository, token *auth.Token) (*models.User, error) {
	user, err := users.GetUserByFirebaseUID(ctx, token.UID)
	if err == nil || !errors.Is(err, repositories.ErrNotFound) {
		return user, err
	}

	uid := token.UID
	user = &models.User{FirebaseUID: &uid, Active: true}
	if name, ok := token.Claims["name"].(string); ok {
		user.Name = name
	}
	if email, ok := token.Claims["email"].(string); ok && email != "" {
		user.Email = &email
	}
	if user.Name == "" {
		user.Name = "user-" + uid
	}
	if err := users.CreateUser(ctx, user); err != nil {
		// Another request provisioned the same UID first.
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return users.GetUserByFirebaseUID(ctx, token.UID)
		}
		return nil, err
	}
	return user, nil
}
