package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"vidtube/internal/auth"
	apperrors "vidtube/internal/errors"
	"vidtube/internal/model"
	"vidtube/internal/service"
)

// AccessTokenCookie is the cookie carrying the access token.
const AccessTokenCookie = "accessToken"

const (
	claimsKey = "accessClaims"
	userKey   = "user"
)

type userCtxKey struct{}

// Authenticate returns middleware that admits requests carrying a valid access
// token for an existing user. The accessToken cookie wins over the
// Authorization header whenever both are present.
func Authenticate(tokens *auth.JWTService, users service.UserService) echo.MiddlewareFunc {
	verify := echojwt.WithConfig(echojwt.Config{
		ContextKey: claimsKey,
		// the lookup below is tried first; this one only re-reads the cookie
		TokenLookup:      "cookie:" + AccessTokenCookie,
		TokenLookupFuncs: []echomw.ValuesExtractor{extractAccessToken},
		ParseTokenFunc: func(c echo.Context, token string) (interface{}, error) {
			return tokens.VerifyAccessToken(token)
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return apperrors.Unauthorized("invalid access token")
		},
	})

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return verify(func(c echo.Context) error {
			claims, ok := c.Get(claimsKey).(*auth.AccessClaims)
			if !ok {
				return apperrors.Unauthorized("invalid access token")
			}
			id, err := uuid.Parse(claims.UserID)
			if err != nil {
				return apperrors.Unauthorized("invalid access token")
			}

			user, err := users.GetUser(c.Request().Context(), id)
			if err != nil {
				if apperrors.Is(err, apperrors.KindNotFound) {
					return apperrors.Unauthorized("invalid access token")
				}
				return err
			}

			c.Set(userKey, user)
			c.SetRequest(c.Request().WithContext(context.WithValue(c.Request().Context(), userCtxKey{}, user)))
			return next(c)
		})
	}
}

// extractAccessToken reads the access token from the cookie, falling back to
// the bearer header only when no cookie was sent.
func extractAccessToken(c echo.Context) ([]string, error) {
	if cookie, err := c.Cookie(AccessTokenCookie); err == nil && cookie.Value != "" {
		return []string{cookie.Value}, nil
	}
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return []string{strings.TrimSpace(header[len(prefix):])}, nil
	}
	return nil, echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
}

// CurrentUser returns the user attached by Authenticate, or nil.
func CurrentUser(c echo.Context) *model.User {
	user, _ := c.Get(userKey).(*model.User)
	return user
}

// UserFromContext returns the user attached by Authenticate, or nil.
func UserFromContext(ctx context.Context) *model.User {
	user, _ := ctx.Value(userCtxKey{}).(*model.User)
	return user
}
