package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nestlyflow/nestlyflow-go/internal/crypto"
	"github.com/nestlyflow/nestlyflow-go/internal/model"
	"github.com/nestlyflow/nestlyflow-go/internal/repository"
	"github.com/nestlyflow/nestlyflow-go/internal/repository/repositorytest"
)

// fakeMailer records sent reset links instead of calling Resend.
type fakeMailer struct {
	sent []string
	err  error
}

func (m *fakeMailer) SendPasswordReset(ctx context.Context, toEmail, username, resetLink string) error {
	m.sent = append(m.sent, resetLink)
	return m.err
}

func newAuthFixture(t *testing.T) (*AuthService, *fakeMailer, *repository.ResetTokenRepository) {
	t.Helper()

	db := repositorytest.NewDB(t)
	users := repository.NewUserRepository(db)
	todos := NewTodoService(repository.NewTodoRepository(db))
	tokens := repository.NewResetTokenRepository(db)
	mailer := &fakeMailer{}

	svc := NewAuthService(users, todos, tokens, mailer,
		"test-secret", time.Hour, "http://localhost:3000/")
	return svc, mailer, tokens
}

func signupAlice(t *testing.T, svc *AuthService) model.UserWithToken {
	t.Helper()
	user, err := svc.Signup(context.Background(), model.SignupRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("Signup() unexpected error: %v", err)
	}
	return user
}

func TestSignup(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	user := signupAlice(t, svc)
	if user.ID == 0 {
		t.Error("Signup() did not assign an ID")
	}
	if user.AccessToken == "" || user.TokenType != "bearer" {
		t.Errorf("Signup() token = %q/%q, want non-empty bearer", user.AccessToken, user.TokenType)
	}
	if user.Todos == nil || len(user.Todos) != 0 {
		t.Errorf("Signup() Todos = %#v, want empty non-nil slice", user.Todos)
	}

	claims, err := crypto.ValidateToken(user.AccessToken, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken() unexpected error: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("token UserID = %d, want %d", claims.UserID, user.ID)
	}
}

func TestSignupDuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	signupAlice(t, svc)

	_, err := svc.Signup(context.Background(), model.SignupRequest{
		Username: "bob",
		Email:    "alice@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrEmailTaken) {
		t.Errorf("Signup(dup email) error = %v, want ErrEmailTaken", err)
	}
}

func TestSignupDuplicateUsername(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	signupAlice(t, svc)

	_, err := svc.Signup(context.Background(), model.SignupRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "password123",
	})
	if !errors.Is(err, ErrSignupConflict) {
		t.Errorf("Signup(dup username) error = %v, want ErrSignupConflict", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	ctx := context.Background()

	cases := []struct {
		name string
		req  model.SignupRequest
		want error
	}{
		{"missing username", model.SignupRequest{Email: "a@b.c", Password: "p"}, ErrUsernameRequired},
		{"missing email", model.SignupRequest{Username: "a", Password: "p"}, ErrEmailRequired},
		{"missing password", model.SignupRequest{Username: "a", Email: "a@b.c"}, ErrPasswordRequired},
	}
	for _, tc := range cases {
		if _, err := svc.Signup(ctx, tc.req); !errors.Is(err, tc.want) {
			t.Errorf("%s: error = %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	signupAlice(t, svc)
	ctx := context.Background()

	// Username and email work in the same login field.
	for _, login := range []string{"alice", "alice@example.com"} {
		token, err := svc.Login(ctx, login, "password123")
		if err != nil {
			t.Fatalf("Login(%q) unexpected error: %v", login, err)
		}
		if token.AccessToken == "" || token.TokenType != "bearer" {
			t.Errorf("Login(%q) token = %+v, want non-empty bearer", login, token)
		}
	}
}

func TestLoginFailures(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	signupAlice(t, svc)
	ctx := context.Background()

	if _, err := svc.Login(ctx, "alice", "wrong"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Login(wrong password) error = %v, want ErrWrongPassword", err)
	}
	if _, err := svc.Login(ctx, "nobody", "password123"); !errors.Is(err, ErrNoSuchUsername) {
		t.Errorf("Login(unknown username) error = %v, want ErrNoSuchUsername", err)
	}
	if _, err := svc.Login(ctx, "nobody@example.com", "password123"); !errors.Is(err, ErrNoSuchEmail) {
		t.Errorf("Login(unknown email) error = %v, want ErrNoSuchEmail", err)
	}
}

func TestCurrentUserIncludesTodos(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	user := signupAlice(t, svc)
	ctx := context.Background()

	if _, err := svc.todos.Create(ctx, user.ID, model.CreateTodoRequest{Title: "Buy milk"}); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	profile, err := svc.CurrentUser(ctx, user.ID)
	if err != nil {
		t.Fatalf("CurrentUser() unexpected error: %v", err)
	}
	if len(profile.Todos) != 1 || profile.Todos[0].Title != "Buy milk" {
		t.Errorf("CurrentUser() Todos = %+v, want the created todo", profile.Todos)
	}
}

func TestUpdateUsername(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	user := signupAlice(t, svc)
	ctx := context.Background()

	updated, err := svc.UpdateUsername(ctx, user.ID, strPtr("alice2"))
	if err != nil {
		t.Fatalf("UpdateUsername() unexpected error: %v", err)
	}
	if updated.Username != "alice2" {
		t.Errorf("Username = %q, want %q", updated.Username, "alice2")
	}
	if updated.AccessToken == "" {
		t.Error("UpdateUsername() did not reissue a token")
	}

	claims, err := crypto.ValidateToken(updated.AccessToken, "test-secret")
	if err != nil {
		t.Fatalf("ValidateToken() unexpected error: %v", err)
	}
	if claims.Username != "alice2" {
		t.Errorf("token Username = %q, want %q", claims.Username, "alice2")
	}

	// A nil username still reissues a token without changing anything.
	same, err := svc.UpdateUsername(ctx, user.ID, nil)
	if err != nil {
		t.Fatalf("UpdateUsername(nil) unexpected error: %v", err)
	}
	if same.Username != "alice2" {
		t.Errorf("Username after nil update = %q, want %q", same.Username, "alice2")
	}
}

func TestUpdateUsernameTaken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	user := signupAlice(t, svc)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, model.SignupRequest{
		Username: "bob", Email: "bob@example.com", Password: "p",
	}); err != nil {
		t.Fatalf("Signup() unexpected error: %v", err)
	}

	if _, err := svc.UpdateUsername(ctx, user.ID, strPtr("bob")); !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("UpdateUsername(taken) error = %v, want ErrUsernameTaken", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	user := signupAlice(t, svc)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, user.ID, "wrong", "newpass"); !errors.Is(err, ErrIncorrectCurrentPassword) {
		t.Errorf("ChangePassword(wrong current) error = %v, want ErrIncorrectCurrentPassword", err)
	}

	if err := svc.ChangePassword(ctx, user.ID, "password123", "newpass"); err != nil {
		t.Fatalf("ChangePassword() unexpected error: %v", err)
	}

	if _, err := svc.Login(ctx, "alice", "password123"); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("Login(old password) error = %v, want ErrWrongPassword", err)
	}
	if _, err := svc.Login(ctx, "alice", "newpass"); err != nil {
		t.Errorf("Login(new password) unexpected error: %v", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	svc, _, _ := newAuthFixture(t)
	user := signupAlice(t, svc)
	ctx := context.Background()

	if err := svc.DeleteAccount(ctx, user.ID, "wrong"); !errors.Is(err, ErrIncorrectPassword) {
		t.Errorf("DeleteAccount(wrong password) error = %v, want ErrIncorrectPassword", err)
	}

	if err := svc.DeleteAccount(ctx, user.ID, "password123"); err != nil {
		t.Fatalf("DeleteAccount() unexpected error: %v", err)
	}
	if _, err := svc.UserByID(ctx, user.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("UserByID() after delete error = %v, want ErrUserNotFound", err)
	}
}

func TestForgotPassword(t *testing.T) {
	svc, mailer, _ := newAuthFixture(t)
	signupAlice(t, svc)
	ctx := context.Background()

	if err := svc.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword() unexpected error: %v", err)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("mailer sent %d emails, want 1", len(mailer.sent))
	}

	// An unknown email gives the same nil outcome, but no mail is sent.
	if err := svc.ForgotPassword(ctx, "nobody@example.com"); err != nil {
		t.Errorf("ForgotPassword(unknown email) error = %v, want nil", err)
	}
	if len(mailer.sent) != 1 {
		t.Errorf("mailer sent %d emails after unknown address, want still 1", len(mailer.sent))
	}
}

func TestForgotPasswordMailerFailureSwallowed(t *testing.T) {
	svc, mailer, _ := newAuthFixture(t)
	signupAlice(t, svc)
	mailer.err = errors.New("resend unavailable")

	if err := svc.ForgotPassword(context.Background(), "alice@example.com"); err != nil {
		t.Errorf("ForgotPassword() error = %v, want nil despite mailer failure", err)
	}
}

func TestResetPassword(t *testing.T) {
	svc, mailer, _ := newAuthFixture(t)
	signupAlice(t, svc)
	ctx := context.Background()

	if err := svc.ForgotPassword(ctx, "alice@example.com"); err != nil {
		t.Fatalf("ForgotPassword() unexpected error: %v", err)
	}
	link := mailer.sent[0]
	token := link[len("http://localhost:3000/reset-password?token="):]

	if err := svc.ResetPassword(ctx, token, "newpass"); err != nil {
		t.Fatalf("ResetPassword() unexpected error: %v", err)
	}
	if _, err := svc.Login(ctx, "alice", "newpass"); err != nil {
		t.Errorf("Login(new password) unexpected error: %v", err)
	}

	// The token is single-use.
	if err := svc.ResetPassword(ctx, token, "another"); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("ResetPassword(reused token) error = %v, want ErrInvalidResetToken", err)
	}
}

func TestResetPasswordInvalidToken(t *testing.T) {
	svc, _, _ := newAuthFixture(t)

	err := svc.ResetPassword(context.Background(), "never-issued", "newpass")
	if !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("ResetPassword(unknown token) error = %v, want ErrInvalidResetToken", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, _, tokens := newAuthFixture(t)
	user := signupAlice(t, svc)
	ctx := context.Background()

	expired := &model.PasswordResetToken{
		UserID:    user.ID,
		Token:     "expired-token",
		ExpiresAt: time.Now().UTC().Add(-time.Minute),
	}
	if err := tokens.Create(ctx, expired); err != nil {
		t.Fatalf("token Create() unexpected error: %v", err)
	}

	if err := svc.ResetPassword(ctx, "expired-token", "newpass"); !errors.Is(err, ErrInvalidResetToken) {
		t.Errorf("ResetPassword(expired) error = %v, want ErrInvalidResetToken", err)
	}
	// Expired tokens are removed on detection.
	if _, err := tokens.GetByToken(ctx, "expired-token"); !errors.Is(err, repository.ErrResetTokenNotFound) {
		t.Errorf("GetByToken(expired) error = %v, want ErrResetTokenNotFound", err)
	}
}
