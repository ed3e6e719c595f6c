package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nestlyflow/nestlyflow-go/internal/crypto"
	"github.com/nestlyflow/nestlyflow-go/internal/model"
	"github.com/nestlyflow/nestlyflow-go/internal/repository"
)

const (
	maxUsernameLength = 50
	maxEmailLength    = 100
	resetTokenTTL     = time.Hour
	tokenType         = "bearer"
)

var (
	ErrUsernameRequired = errors.New("username is required")
	ErrEmailRequired    = errors.New("email is required")
	ErrPasswordRequired = errors.New("password is required")
	ErrUsernameTooLong  = errors.New("username must be at most 50 characters")
	ErrEmailTooLong     = errors.New("email must be at most 100 characters")

	ErrEmailTaken     = errors.New("email already registered")
	ErrSignupConflict = errors.New("username or email already registered")
	ErrUsernameTaken  = errors.New("username already taken")

	ErrNoSuchEmail    = errors.New("account with that email does not exist")
	ErrNoSuchUsername = errors.New("account with that username does not exist")
	ErrWrongPassword  = errors.New("incorrect username or password")

	ErrIncorrectCurrentPassword = errors.New("incorrect current password")
	ErrIncorrectPassword        = errors.New("incorrect password")
	ErrInvalidResetToken        = errors.New("invalid or expired token")

	ErrUserNotFound = errors.New("user not found")
)

// ResetMailer delivers password reset links. Send failures must never reach
// the caller of the forgot-password flow.
type ResetMailer interface {
	SendPasswordReset(ctx context.Context, toEmail, username, resetLink string) error
}

// AuthService handles account management: signup, login, profile updates,
// password changes, the reset-token flow and account deletion.
type AuthService struct {
	users        *repository.UserRepository
	todos        *TodoService
	tokens       *repository.ResetTokenRepository
	mailer       ResetMailer
	jwtSecret    string
	jwtExpiry    time.Duration
	resetBaseURL string
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users *repository.UserRepository,
	todos *TodoService,
	tokens *repository.ResetTokenRepository,
	mailer ResetMailer,
	jwtSecret string,
	jwtExpiry time.Duration,
	resetBaseURL string,
) *AuthService {
	return &AuthService{
		users:        users,
		todos:        todos,
		tokens:       tokens,
		mailer:       mailer,
		jwtSecret:    jwtSecret,
		jwtExpiry:    jwtExpiry,
		resetBaseURL: resetBaseURL,
	}
}

// Signup creates a new account and returns the user with a bearer token.
// A duplicate email is rejected before the insert; a duplicate surfacing
// from the insert itself (signup race) is reported as a conflict.
func (s *AuthService) Signup(ctx context.Context, req model.SignupRequest) (model.UserWithToken, error) {
	switch {
	case req.Username == "":
		return model.UserWithToken{}, ErrUsernameRequired
	case len(req.Username) > maxUsernameLength:
		return model.UserWithToken{}, ErrUsernameTooLong
	case req.Email == "":
		return model.UserWithToken{}, ErrEmailRequired
	case len(req.Email) > maxEmailLength:
		return model.UserWithToken{}, ErrEmailTooLong
	case req.Password == "":
		return model.UserWithToken{}, ErrPasswordRequired
	}

	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return model.UserWithToken{}, ErrEmailTaken
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return model.UserWithToken{}, err
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.UserWithToken{}, err
	}

	user := &model.User{
		Username:       req.Username,
		Email:          req.Email,
		HashedPassword: hash,
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail),
			errors.Is(err, repository.ErrDuplicateUsername),
			errors.Is(err, repository.ErrDuplicateUser):
			return model.UserWithToken{}, ErrSignupConflict
		}
		return model.UserWithToken{}, err
	}

	return s.userWithToken(user, []model.TodoResponse{})
}

// Login authenticates by username or email (same field) and returns a
// bearer token. Unknown accounts and wrong passwords are distinct errors.
func (s *AuthService) Login(ctx context.Context, login, password string) (model.TokenResponse, error) {
	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			if strings.Contains(login, "@") {
				return model.TokenResponse{}, ErrNoSuchEmail
			}
			return model.TokenResponse{}, ErrNoSuchUsername
		}
		return model.TokenResponse{}, err
	}

	match, err := crypto.VerifyPassword(password, user.HashedPassword)
	if err != nil {
		return model.TokenResponse{}, err
	}
	if !match {
		return model.TokenResponse{}, ErrWrongPassword
	}

	token, err := crypto.GenerateToken(user.ID, user.Username, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.TokenResponse{}, err
	}

	return model.TokenResponse{AccessToken: token, TokenType: tokenType}, nil
}

// UserByID retrieves the raw user record, for callers that need identity
// without the todo list (the assistant's optional-auth path).
func (s *AuthService) UserByID(ctx context.Context, id int64) (*model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// CurrentUser returns the user's profile including all owned todos.
func (s *AuthService) CurrentUser(ctx context.Context, id int64) (model.UserResponse, error) {
	user, err := s.UserByID(ctx, id)
	if err != nil {
		return model.UserResponse{}, err
	}

	todos, err := s.todos.ListAll(ctx, user.ID)
	if err != nil {
		return model.UserResponse{}, err
	}

	return userResponse(user, todos), nil
}

// UpdateUsername changes the username, the only mutable profile field, and
// returns the user with a freshly issued token.
func (s *AuthService) UpdateUsername(ctx context.Context, id int64, newUsername *string) (model.UserWithToken, error) {
	user, err := s.UserByID(ctx, id)
	if err != nil {
		return model.UserWithToken{}, err
	}

	if newUsername != nil && *newUsername != user.Username {
		if *newUsername == "" {
			return model.UserWithToken{}, ErrUsernameRequired
		}
		if len(*newUsername) > maxUsernameLength {
			return model.UserWithToken{}, ErrUsernameTooLong
		}

		if _, err := s.users.GetByUsername(ctx, *newUsername); err == nil {
			return model.UserWithToken{}, ErrUsernameTaken
		} else if !errors.Is(err, repository.ErrUserNotFound) {
			return model.UserWithToken{}, err
		}

		if err := s.users.UpdateUsername(ctx, id, *newUsername); err != nil {
			if errors.Is(err, repository.ErrDuplicateUsername) || errors.Is(err, repository.ErrDuplicateUser) {
				return model.UserWithToken{}, ErrUsernameTaken
			}
			return model.UserWithToken{}, err
		}
		user.Username = *newUsername
	}

	todos, err := s.todos.ListAll(ctx, user.ID)
	if err != nil {
		return model.UserWithToken{}, err
	}

	return s.userWithToken(user, todos)
}

// ChangePassword re-verifies the current password before replacing it.
func (s *AuthService) ChangePassword(ctx context.Context, id int64, currentPassword, newPassword string) error {
	user, err := s.UserByID(ctx, id)
	if err != nil {
		return err
	}

	match, err := crypto.VerifyPassword(currentPassword, user.HashedPassword)
	if err != nil {
		return err
	}
	if !match {
		return ErrIncorrectCurrentPassword
	}
	if newPassword == "" {
		return ErrPasswordRequired
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, id, hash)
}

// DeleteAccount re-verifies the password, then deletes the user together
// with all owned todos and reset tokens.
func (s *AuthService) DeleteAccount(ctx context.Context, id int64, password string) error {
	user, err := s.UserByID(ctx, id)
	if err != nil {
		return err
	}

	match, err := crypto.VerifyPassword(password, user.HashedPassword)
	if err != nil {
		return err
	}
	if !match {
		return ErrIncorrectPassword
	}

	return s.users.Delete(ctx, id)
}

// ForgotPassword starts the reset flow. Whether or not the email exists,
// the caller sees the same outcome; mail delivery failures are logged and
// swallowed for the same enumeration-resistance reason.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	token, err := crypto.GenerateResetToken()
	if err != nil {
		return err
	}

	reset := &model.PasswordResetToken{
		UserID:    user.ID,
		Token:     token,
		ExpiresAt: time.Now().UTC().Add(resetTokenTTL),
	}
	if err := s.tokens.Create(ctx, reset); err != nil {
		return err
	}

	resetLink := s.resetBaseURL + "reset-password?token=" + token
	if err := s.mailer.SendPasswordReset(ctx, user.Email, user.Username, resetLink); err != nil {
		slog.Error("sending password reset email failed", "error", err)
	}
	return nil
}

// ResetPassword consumes a reset token. Expired tokens are deleted on
// detection; a successful reset deletes the token, making it single-use.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	reset, err := s.tokens.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrResetTokenNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	if time.Now().UTC().After(reset.ExpiresAt) {
		if err := s.tokens.Delete(ctx, reset.ID); err != nil {
			return err
		}
		return ErrInvalidResetToken
	}

	if newPassword == "" {
		return ErrPasswordRequired
	}

	user, err := s.users.GetByID(ctx, reset.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}

	return s.tokens.Delete(ctx, reset.ID)
}

func (s *AuthService) userWithToken(user *model.User, todos []model.TodoResponse) (model.UserWithToken, error) {
	token, err := crypto.GenerateToken(user.ID, user.Username, s.jwtSecret, s.jwtExpiry)
	if err != nil {
		return model.UserWithToken{}, err
	}

	return model.UserWithToken{
		UserResponse: userResponse(user, todos),
		AccessToken:  token,
		TokenType:    tokenType,
	}, nil
}

func userResponse(user *model.User, todos []model.TodoResponse) model.UserResponse {
	if todos == nil {
		todos = []model.TodoResponse{}
	}
	return model.UserResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Todos:    todos,
	}
}
