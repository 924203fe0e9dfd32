package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	apperrors "vidtube/internal/errors"
	"vidtube/internal/middleware"
	"vidtube/internal/storage"
)

// Cookie names for the session pair.
const (
	AccessTokenCookie  = middleware.AccessTokenCookie
	RefreshTokenCookie = "refreshToken"
)

// APIResponse is the success envelope.
type APIResponse struct {
	Status  int         `json:"status"`
	Data    interface{} `json:"data"`
	Message string      `json:"message"`
	Success bool        `json:"success"`
}

func respond(c echo.Context, status int, data interface{}, message string) error {
	if data == nil {
		data = struct{}{}
	}
	return c.JSON(status, APIResponse{
		Status:  status,
		Data:    data,
		Message: message,
		Success: status < http.StatusBadRequest,
	})
}

// CookieConfig controls the session cookies.
type CookieConfig struct {
	Secure     bool
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

func (cc CookieConfig) set(c echo.Context, name, value string, ttl time.Duration) {
	c.SetCookie(&http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   cc.Secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func (cc CookieConfig) setSession(c echo.Context, access, refresh string) {
	cc.set(c, AccessTokenCookie, access, cc.AccessTTL)
	cc.set(c, RefreshTokenCookie, refresh, cc.RefreshTTL)
}

func (cc CookieConfig) clearSession(c echo.Context) {
	for _, name := range []string{AccessTokenCookie, RefreshTokenCookie} {
		c.SetCookie(&http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   cc.Secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}

// bind decodes the request into dst and runs struct validation when a validator is registered.
func bind(c echo.Context, dst interface{}) error {
	if err := c.Bind(dst); err != nil {
		return apperrors.Validation("invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		if errors.Is(err, echo.ErrValidatorNotRegistered) {
			return nil
		}
		return apperrors.Validation(validationMessage(err))
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return "invalid request body"
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, strings.ToLower(fe.Field()[:1])+fe.Field()[1:]+" is "+describeTag(fe.Tag()))
	}
	return strings.Join(fields, ", ")
}

func describeTag(tag string) string {
	switch tag {
	case "required":
		return "required"
	case "email":
		return "not a valid email"
	default:
		return "invalid"
	}
}

// formMedia opens the named multipart file. A missing file yields nil media and no error.
func formMedia(c echo.Context, field string) (*storage.Media, io.Closer, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nopCloser{}, nil
		}
		return nil, nil, apperrors.Validation("invalid " + field + " file")
	}
	media, closer, err := storage.FromFileHeader(fh)
	if err != nil {
		return nil, nil, apperrors.Validation("invalid " + field + " file")
	}
	return media, closer, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
