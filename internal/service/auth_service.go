package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"vidtube/internal/auth"
	apperrors "vidtube/internal/errors"
	"vidtube/internal/model"
	"vidtube/internal/repository"
	"vidtube/internal/storage"
)

// Object storage folders for profile media.
const (
	AvatarFolder     = "avatars"
	CoverImageFolder = "covers"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	FullName   string
	Email      string
	Username   string
	Password   string
	Avatar     *storage.Media
	CoverImage *storage.Media
}

// TokenPair is one session's access and refresh token.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is returned by a successful login.
type LoginResult struct {
	User *model.User `json:"user"`
	TokenPair
}

// AuthService handles registration and the session lifecycle.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*model.User, error)
	Login(ctx context.Context, identifier, password string) (*LoginResult, error)
	Logout(ctx context.Context, userID uuid.UUID) error
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error
}

type authService struct {
	users  repository.UserRepository
	tokens *auth.JWTService
	hasher *auth.PasswordHasher
	media  storage.Uploader
	log    *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.JWTService,
	hasher *auth.PasswordHasher,
	media storage.Uploader,
	log *slog.Logger,
) AuthService {
	return &authService{
		users:  users,
		tokens: tokens,
		hasher: hasher,
		media:  media,
		log:    log,
	}
}

// Register validates the form, uploads media and creates the user.
// Nothing is written to the store unless every upload succeeded.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	fullName := strings.TrimSpace(in.FullName)
	email := strings.TrimSpace(in.Email)
	username := model.NormalizeUsername(in.Username)
	if fullName == "" || email == "" || username == "" || strings.TrimSpace(in.Password) == "" {
		return nil, apperrors.Validation("all fields are required")
	}

	existing, err := s.users.FindByUsernameOrEmail(ctx, username, email)
	if err == nil && existing != nil {
		return nil, apperrors.Conflict("user with this email or username already exists")
	}
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Internal("check user existence", err)
	}

	if in.Avatar == nil {
		return nil, apperrors.Validation("avatar file is required")
	}
	avatarURL, err := s.media.Upload(ctx, AvatarFolder, in.Avatar)
	if err != nil {
		s.log.WarnContext(ctx, "avatar upload failed", "username", username, "error", err)
		return nil, apperrors.Validation("avatar file is required")
	}

	var coverURL string
	if in.CoverImage != nil {
		coverURL, err = s.media.Upload(ctx, CoverImageFolder, in.CoverImage)
		if err != nil {
			return nil, apperrors.Internal("cover image upload failed", err)
		}
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.Internal("user creation failed", err)
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		FullName:     fullName,
		Avatar:       avatarURL,
		CoverImage:   coverURL,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperrors.Conflict("user with this email or username already exists")
		}
		return nil, apperrors.Internal("user creation failed", err)
	}

	created, err := s.users.FindByID(ctx, user.ID)
	if err != nil {
		return nil, apperrors.Internal("user creation failed", err)
	}

	s.log.InfoContext(ctx, "user registered", "user_id", created.ID, "username", created.Username)
	return created.Sanitized(), nil
}

// Login authenticates by username or email and starts a new session.
// The new refresh token replaces any previous one on record.
func (s *authService) Login(ctx context.Context, identifier, password string) (*LoginResult, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, apperrors.Validation("username or email is required")
	}
	if password == "" {
		return nil, apperrors.Validation("password is required")
	}

	user, err := s.users.FindByUsernameOrEmail(ctx, model.NormalizeUsername(identifier), identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user does not exist")
		}
		return nil, apperrors.Internal("find user", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		s.log.WarnContext(ctx, "login rejected", "user_id", user.ID, "reason", "bad password")
		return nil, apperrors.Unauthorized("invalid user credentials")
	}

	pair, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	return &LoginResult{User: user.Sanitized(), TokenPair: *pair}, nil
}

// Logout clears the stored refresh token. Access tokens stay valid until they expire.
func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	if err := s.users.ClearRefreshToken(ctx, userID); err != nil {
		return apperrors.Internal("clear refresh token", err)
	}
	return nil
}

// Refresh rotates the session. The presented token must be the one on record;
// after rotation it can never be used again.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return nil, apperrors.Unauthorized("unauthorized request")
	}

	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}
	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, apperrors.Unauthorized("invalid refresh token")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.Unauthorized("invalid refresh token")
		}
		return nil, apperrors.Internal("find user", err)
	}

	if !user.HasRefreshToken(refreshToken) {
		s.log.WarnContext(ctx, "refresh token reuse", "user_id", user.ID)
		return nil, apperrors.Unauthorized("refresh token is expired or used")
	}

	pair, err := s.newTokenPair(user)
	if err != nil {
		return nil, err
	}

	swapped, err := s.users.SwapRefreshToken(ctx, user.ID, refreshToken, pair.RefreshToken)
	if err != nil {
		return nil, apperrors.Internal("something went wrong while generating tokens", err)
	}
	if !swapped {
		// a concurrent refresh or logout got there first
		s.log.WarnContext(ctx, "refresh token lost rotation race", "user_id", user.ID)
		return nil, apperrors.Unauthorized("refresh token is expired or used")
	}
	return pair, nil
}

// ChangePassword re-hashes and stores newPassword once oldPassword verifies.
func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword string) error {
	if oldPassword == "" || strings.TrimSpace(newPassword) == "" {
		return apperrors.Validation("old and new password are required")
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("user does not exist")
		}
		return apperrors.Internal("find user", err)
	}

	if !s.hasher.Verify(oldPassword, user.PasswordHash) {
		return apperrors.Unauthorized("invalid old password")
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperrors.Internal("hash password", err)
	}
	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return apperrors.Internal("update password", err)
	}
	return nil
}

// issueTokens creates a pair and stores its refresh token, overwriting the previous one.
func (s *authService) issueTokens(ctx context.Context, user *model.User) (*TokenPair, error) {
	pair, err := s.newTokenPair(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetRefreshToken(ctx, user.ID, pair.RefreshToken); err != nil {
		return nil, apperrors.Internal("something went wrong while generating tokens", err)
	}
	return pair, nil
}

func (s *authService) newTokenPair(user *model.User) (*TokenPair, error) {
	access, err := s.tokens.IssueAccessToken(user)
	if err != nil {
		return nil, apperrors.Internal("something went wrong while generating tokens", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.Internal("something went wrong while generating tokens", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
