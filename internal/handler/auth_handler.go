package handler

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "vidtube/internal/errors"
	"vidtube/internal/middleware"
	"vidtube/internal/service"
)

// AuthHandler handles registration and session endpoints.
type AuthHandler struct {
	authService service.AuthService
	cookies     CookieConfig
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, cookies CookieConfig) *AuthHandler {
	return &AuthHandler{authService: authService, cookies: cookies}
}

// LoginRequest accepts either username or email.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Email    string `json:"email" form:"email"`
	Password string `json:"password" form:"password"`
}

// RefreshRequest carries the refresh token when no cookie is sent.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken" form:"refreshToken"`
}

// ChangePasswordRequest represents a password change.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" form:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" form:"newPassword" validate:"required"`
}

// Register godoc
// @Summary Register a new user
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Param fullname formData string true "Full name"
// @Param email formData string true "Email"
// @Param username formData string true "Username"
// @Param password formData string true "Password"
// @Param avatar formData file true "Avatar image"
// @Param coverImage formData file false "Cover image"
// @Success 201 {object} APIResponse{data=model.User}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /users/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	avatar, avatarFile, err := formMedia(c, "avatar")
	if err != nil {
		return err
	}
	defer avatarFile.Close()

	cover, coverFile, err := formMedia(c, "coverImage")
	if err != nil {
		return err
	}
	defer coverFile.Close()

	user, err := h.authService.Register(c.Request().Context(), service.RegisterInput{
		FullName:   c.FormValue("fullname"),
		Email:      c.FormValue("email"),
		Username:   c.FormValue("username"),
		Password:   c.FormValue("password"),
		Avatar:     avatar,
		CoverImage: cover,
	})
	if err != nil {
		return err
	}

	return respond(c, http.StatusCreated, user, "user registered successfully")
}

// Login godoc
// @Summary Log in with username or email
// @Tags users
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} APIResponse{data=service.LoginResult}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 404 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	identifier := req.Username
	if strings.TrimSpace(identifier) == "" {
		identifier = req.Email
	}

	result, err := h.authService.Login(c.Request().Context(), identifier, req.Password)
	if err != nil {
		return err
	}

	h.cookies.setSession(c, result.AccessToken, result.RefreshToken)
	return respond(c, http.StatusOK, result, "user logged in successfully")
}

// Logout godoc
// @Summary Log out the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /users/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return apperrors.Unauthorized("unauthorized request")
	}

	if err := h.authService.Logout(c.Request().Context(), user.ID); err != nil {
		return err
	}

	h.cookies.clearSession(c)
	return respond(c, http.StatusOK, nil, "user logged out")
}

// RefreshToken godoc
// @Summary Rotate the session tokens
// @Tags users
// @Accept json
// @Produce json
// @Param request body RefreshRequest false "Refresh token, when not sent as a cookie"
// @Success 200 {object} APIResponse{data=service.TokenPair}
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /users/refresh-token [post]
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	presented := ""
	if cookie, err := c.Cookie(RefreshTokenCookie); err == nil {
		presented = cookie.Value
	}
	if presented == "" {
		var req RefreshRequest
		if err := bind(c, &req); err != nil {
			return err
		}
		presented = req.RefreshToken
	}

	pair, err := h.authService.Refresh(c.Request().Context(), presented)
	if err != nil {
		return err
	}

	h.cookies.setSession(c, pair.AccessToken, pair.RefreshToken)
	return respond(c, http.StatusOK, pair, "access token refreshed")
}

// ChangePassword godoc
// @Summary Change the current user's password
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ChangePasswordRequest true "Old and new password"
// @Success 200 {object} APIResponse
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /users/change-password [post]
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return apperrors.Unauthorized("unauthorized request")
	}

	var req ChangePasswordRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	if err := h.authService.ChangePassword(c.Request().Context(), user.ID, req.OldPassword, req.NewPassword); err != nil {
		return err
	}

	return respond(c, http.StatusOK, nil, "password changed successfully")
}
