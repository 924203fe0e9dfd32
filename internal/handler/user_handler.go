package handler

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apperrors "vidtube/internal/errors"
	"vidtube/internal/middleware"
	"vidtube/internal/model"
	"vidtube/internal/service"
	"vidtube/internal/storage"
)

// UserHandler serves the authenticated profile endpoints.
type UserHandler struct {
	svc service.UserService
}

// NewUserHandler creates a handler layer.
func NewUserHandler(svc service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// UpdateAccountRequest represents a profile update.
type UpdateAccountRequest struct {
	FullName string `json:"fullname" form:"fullname" validate:"required"`
	Email    string `json:"email" form:"email" validate:"required,email"`
}

// CurrentUser godoc
// @Summary Get the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} APIResponse{data=model.User}
// @Failure 401 {object} apperrors.ErrorResponse
// @Router /users/current-user [get]
func (h *UserHandler) CurrentUser(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return apperrors.Unauthorized("unauthorized request")
	}
	return respond(c, http.StatusOK, user, "current user fetched successfully")
}

// UpdateAccount godoc
// @Summary Update full name and email
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateAccountRequest true "Account details"
// @Success 200 {object} APIResponse{data=model.User}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 409 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /users/update-account [patch]
func (h *UserHandler) UpdateAccount(c echo.Context) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return apperrors.Unauthorized("unauthorized request")
	}

	var req UpdateAccountRequest
	if err := bind(c, &req); err != nil {
		return err
	}

	updated, err := h.svc.UpdateAccount(c.Request().Context(), user.ID, req.FullName, req.Email)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, updated, "account details updated successfully")
}

// UpdateAvatar godoc
// @Summary Replace the avatar image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param avatar formData file true "Avatar image"
// @Success 200 {object} APIResponse{data=model.User}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /users/avatar [patch]
func (h *UserHandler) UpdateAvatar(c echo.Context) error {
	return h.updateMedia(c, "avatar", h.svc.UpdateAvatar, "avatar updated successfully")
}

// UpdateCoverImage godoc
// @Summary Replace the cover image
// @Tags users
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param coverImage formData file true "Cover image"
// @Success 200 {object} APIResponse{data=model.User}
// @Failure 400 {object} apperrors.ErrorResponse
// @Failure 401 {object} apperrors.ErrorResponse
// @Failure 500 {object} apperrors.ErrorResponse
// @Router /users/cover-image [patch]
func (h *UserHandler) UpdateCoverImage(c echo.Context) error {
	return h.updateMedia(c, "coverImage", h.svc.UpdateCoverImage, "cover image updated successfully")
}

type mediaUpdate func(ctx context.Context, id uuid.UUID, media *storage.Media) (*model.User, error)

func (h *UserHandler) updateMedia(c echo.Context, field string, update mediaUpdate, message string) error {
	user := middleware.CurrentUser(c)
	if user == nil {
		return apperrors.Unauthorized("unauthorized request")
	}

	media, file, err := formMedia(c, field)
	if err != nil {
		return err
	}
	defer file.Close()

	updated, err := update(c.Request().Context(), user.ID, media)
	if err != nil {
		return err
	}
	return respond(c, http.StatusOK, updated, message)
}
