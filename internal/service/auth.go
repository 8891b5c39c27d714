package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/swfilms/swfilms-go/internal/model"
	"github.com/swfilms/swfilms-go/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUsernameTaken      = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the persistence the auth flows need.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
}

// PasswordHasher derives and checks credential digests.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// TokenIssuer signs access tokens for a user.
type TokenIssuer interface {
	Issue(user *model.User) (string, error)
}

// AuthService handles sign-up and sign-in.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenIssuer

	// digest verified against when the username is unknown, so both
	// failure paths cost one hash computation
	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenIssuer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// SignUp registers a REGULAR user and returns it with a fresh token.
func (s *AuthService) SignUp(ctx context.Context, req model.RegisterRequest) (model.AuthResponse, error) {
	_, err := s.users.GetByUsername(ctx, req.Username)
	switch {
	case err == nil:
		return model.AuthResponse{}, ErrUsernameTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return model.AuthResponse{}, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return model.AuthResponse{}, err
	}

	user := &model.User{
		Name:         req.Name,
		Username:     req.Username,
		PasswordHash: hash,
		Role:         model.RoleRegular,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateUsername) {
			return model.AuthResponse{}, ErrUsernameTaken
		}
		return model.AuthResponse{}, err
	}

	slog.Info("user registered", "user_id", user.ID, "username", user.Username)
	return s.authResponse(user)
}

// SignIn checks the credentials and returns the user with a fresh token.
// An unknown username and a wrong password fail identically.
func (s *AuthService) SignIn(ctx context.Context, req model.LoginRequest) (model.AuthResponse, error) {
	user, err := s.users.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.burnVerify(req.Password)
			return model.AuthResponse{}, ErrInvalidCredentials
		}
		return model.AuthResponse{}, err
	}

	match, err := s.hasher.Verify(req.Password, user.PasswordHash)
	if err != nil {
		return model.AuthResponse{}, err
	}
	if !match {
		return model.AuthResponse{}, ErrInvalidCredentials
	}

	return s.authResponse(user)
}

// GetUser returns the public view of the user with the given ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (model.UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	return model.NewUserResponse(user), nil
}

func (s *AuthService) authResponse(user *model.User) (model.AuthResponse, error) {
	token, err := s.tokens.Issue(user)
	if err != nil {
		return model.AuthResponse{}, err
	}

	return model.AuthResponse{
		User:  model.NewUserResponse(user),
		Token: token,
	}, nil
}

func (s *AuthService) burnVerify(password string) {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = s.hasher.Hash("not-a-real-password")
	})
	if s.dummyHash != "" {
		s.hasher.Verify(password, s.dummyHash)
	}
}
