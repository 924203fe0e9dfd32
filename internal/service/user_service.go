package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidtube/internal/cache"
	apperrors "vidtube/internal/errors"
	"vidtube/internal/model"
	"vidtube/internal/repository"
	"vidtube/internal/storage"
)

const userCacheTTL = 5 * time.Minute

// UserService exposes profile reads and updates.
type UserService interface {
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	UpdateAccount(ctx context.Context, id uuid.UUID, fullName, email string) (*model.User, error)
	UpdateAvatar(ctx context.Context, id uuid.UUID, media *storage.Media) (*model.User, error)
	UpdateCoverImage(ctx context.Context, id uuid.UUID, media *storage.Media) (*model.User, error)
}

type userService struct {
	repo  repository.UserRepository
	media storage.Uploader
	cache *cache.Client
}

// NewUserService builds a UserService with repository, object storage and cache.
func NewUserService(repo repository.UserRepository, media storage.Uploader, cache *cache.Client) UserService {
	return &userService{repo: repo, media: media, cache: cache}
}

func (s *userService) cacheKey(id uuid.UUID) string {
	return "user:" + id.String()
}

// GetUser returns the sanitized profile, served from cache when possible.
func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var cached model.User
	if s.cache.GetJSON(ctx, s.cacheKey(id), &cached) && cached.ID == id {
		return &cached, nil
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user does not exist")
		}
		return nil, apperrors.Internal("find user", err)
	}

	sanitized := user.Sanitized()
	s.cache.SetJSON(ctx, s.cacheKey(id), sanitized, userCacheTTL)
	return sanitized, nil
}

func (s *userService) UpdateAccount(ctx context.Context, id uuid.UUID, fullName, email string) (*model.User, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)
	if fullName == "" || email == "" {
		return nil, apperrors.Validation("all fields are required")
	}

	owner, err := s.repo.FindByEmail(ctx, email)
	switch {
	case err == nil && owner.ID != id:
		return nil, apperrors.Conflict("email is already in use")
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, apperrors.Internal("check email", err)
	}

	if err := s.repo.UpdateAccount(ctx, id, fullName, email); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("email is already in use")
		}
		return nil, apperrors.Internal("update account", err)
	}
	return s.reload(ctx, id)
}

func (s *userService) UpdateAvatar(ctx context.Context, id uuid.UUID, media *storage.Media) (*model.User, error) {
	if media == nil {
		return nil, apperrors.Validation("avatar file is missing")
	}
	url, err := s.media.Upload(ctx, AvatarFolder, media)
	if err != nil {
		return nil, apperrors.Internal("error while uploading avatar", err)
	}
	if err := s.repo.UpdateAvatar(ctx, id, url); err != nil {
		return nil, apperrors.Internal("update avatar", err)
	}
	return s.reload(ctx, id)
}

func (s *userService) UpdateCoverImage(ctx context.Context, id uuid.UUID, media *storage.Media) (*model.User, error) {
	if media == nil {
		return nil, apperrors.Validation("cover image file is missing")
	}
	url, err := s.media.Upload(ctx, CoverImageFolder, media)
	if err != nil {
		return nil, apperrors.Internal("error while uploading cover image", err)
	}
	if err := s.repo.UpdateCoverImage(ctx, id, url); err != nil {
		return nil, apperrors.Internal("update cover image", err)
	}
	return s.reload(ctx, id)
}

// reload drops the cached profile and reads it back from the store.
func (s *userService) reload(ctx context.Context, id uuid.UUID) (*model.User, error) {
	s.cache.Delete(ctx, s.cacheKey(id))
	return s.GetUser(ctx, id)
}
