package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/rental-spots/internal/apperror"
	"github.com/sakif/rental-spots/internal/auth"
	"github.com/sakif/rental-spots/internal/model"
	"github.com/sakif/rental-spots/internal/repository"
	"github.com/sakif/rental-spots/internal/validation"
)

// AuthService signs users up and in, by password or through GitHub, and
// issues the session token for each.
//
//	AuthHandler (HTTP) → AuthService → UserRepository (DB)
//	                               ↘ TokenService (JWT), PasswordService (bcrypt)
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	logger    *slog.Logger
}

func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		logger:    logger,
	}
}

// AuthResult bundles the user and the signed token so the handler can set
// the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

type SignupInput struct {
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6,max=72"`
}

var SignupMessages = validation.Messages{
	"firstName": "First Name is required",
	"lastName":  "Last Name is required",
	"email":     "Invalid email",
	"password":  "Password must be 6 characters or more",
}

type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

var LoginMessages = validation.Messages{
	"email":    "Email is required",
	"password": "Password is required",
}

// errInvalidCredentials covers both an unknown email and a wrong password.
var errInvalidCredentials = apperror.Unauthorized("Invalid credentials")

// Signup creates a password account and signs it in.
func (s *AuthService) Signup(ctx context.Context, in SignupInput) (*AuthResult, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in, SignupMessages); err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: %w", err)
	}

	user := &model.User{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		HashedPassword: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, apperror.ErrConflict) {
			return nil, &apperror.AppError{
				Err:     apperror.ErrConflict,
				Message: "User already exists",
				Field:   "email",
				Fields:  map[string]string{"email": "User with that email already exists"},
			}
		}
		return nil, fmt.Errorf("service/auth: creating user: %w", err)
	}

	s.logger.Info("user signed up", slog.Int64("userID", user.ID))
	return s.issue(user)
}

// Login checks an email and password.
func (s *AuthService) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validate.Struct(in, LoginMessages); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: looking up user: %w", err)
	}

	// Accounts created through GitHub have no password to check.
	if user.HashedPassword == "" {
		return nil, errInvalidCredentials
	}
	if err := s.passwords.Verify(user.HashedPassword, in.Password); err != nil {
		if errors.Is(err, auth.ErrInvalidPassword) {
			return nil, errInvalidCredentials
		}
		return nil, fmt.Errorf("service/auth: verifying password for user %d: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.Int64("userID", user.ID))
	return s.issue(user)
}

// LoginWithGitHub signs in the account linked to ghUser. An unlinked
// GitHub account is linked to the user with the same email, or gets a new
// passwordless user.
func (s *AuthService) LoginWithGitHub(ctx context.Context, ghUser *auth.GitHubUser) (*AuthResult, error) {
	if ghUser == nil {
		return nil, fmt.Errorf("service/auth: GitHub user must not be nil")
	}

	user, err := s.users.GetByGitHubID(ctx, ghUser.ID)
	if err == nil {
		return s.issue(user)
	}
	if !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up github user %d: %w", ghUser.ID, err)
	}

	email := strings.ToLower(ghUser.Email)
	user, err = s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.users.LinkGitHub(ctx, user.ID, ghUser.ID); err != nil {
			return nil, fmt.Errorf("service/auth: linking github account: %w", err)
		}
		s.logger.Info("github account linked",
			slog.Int64("userID", user.ID),
			slog.Int64("githubID", ghUser.ID),
		)
	case errors.Is(err, apperror.ErrNotFound):
		first, last := ghUser.FirstLast()
		githubID := ghUser.ID
		user = &model.User{
			FirstName: first,
			LastName:  last,
			Email:     email,
			GitHubID:  &githubID,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, fmt.Errorf("service/auth: creating github user: %w", err)
		}
		s.logger.Info("user signed up via GitHub",
			slog.Int64("userID", user.ID),
			slog.String("login", ghUser.Login),
		)
	default:
		return nil, fmt.Errorf("service/auth: looking up user by email: %w", err)
	}

	return s.issue(user)
}

// CurrentUser returns the signed-in user for GET /session.
func (s *AuthService) CurrentUser(ctx context.Context, userID int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: fetching user %d: %w", userID, err)
	}
	return user, nil
}

// TokenTTL is the lifetime of issued tokens, for the cookie Max-Age.
func (s *AuthService) TokenTTL() time.Duration {
	return s.tokens.TTL()
}

func (s *AuthService) issue(user *model.User) (*AuthResult, error) {
	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %d: %w", user.ID, err)
	}
	return &AuthResult{User: user, Token: token}, nil
}
