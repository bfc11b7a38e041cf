// Package service holds the authentication core: credential checks, token
// issuance and account bootstrapping.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/auth"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/config"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/crypto"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/model"
	"github.com/Prince-Kwakye/SibaSchoolManagement/internal/repository"
)

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password so a caller cannot tell which case occurred.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrDuplicateUser is returned when the requested username is taken.
	ErrDuplicateUser = errors.New("user already exists")
)

// RegistrationError carries the reasons a registration was rejected.
type RegistrationError struct {
	Reasons []string
}

func (e *RegistrationError) Error() string {
	return "user creation failed: " + strings.Join(e.Reasons, ", ")
}

// UserStore is the credential store contract consumed by the Authenticator.
// *repository.Store satisfies it.
type UserStore interface {
	GetUserByUsername(ctx context.Context, username string) (model.User, error)
	GetUserByEmail(ctx context.Context, email string) (model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
}

// AuthResult is the success payload of both Login and Register.
type AuthResult struct {
	Token     string
	Username  string
	Role      model.Role
	ExpiresAt time.Time
}

type RegisterInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Role     string
}

type Authenticator struct {
	users    UserStore
	secret   []byte
	issuer   string
	audience string
	tokenTTL time.Duration
}

func NewAuthenticator(users UserStore, cfg config.Config) *Authenticator {
	return &Authenticator{
		users:    users,
		secret:   []byte(cfg.JWTSecret),
		issuer:   cfg.JWTIssuer,
		audience: cfg.JWTAudience,
		tokenTTL: cfg.TokenTTL,
	}
}

// Login verifies the credentials and issues a signed token. It is read-only
// against the store; the password comparison runs even though bcrypt is
// deliberately slow.
func (a *Authenticator) Login(ctx context.Context, username, password string) (AuthResult, error) {
	user, err := a.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("looking up user: %w", err)
	}

	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		return AuthResult{}, ErrInvalidCredentials
	}

	role := model.ResolveRole(string(user.Role))
	token, expiresAt, err := auth.NewAccessToken(a.secret, a.issuer, a.audience, a.tokenTTL, user.Username, user.ID, role)
	if err != nil {
		return AuthResult{}, fmt.Errorf("signing token: %w", err)
	}

	return AuthResult{
		Token:     token,
		Username:  user.Username,
		Role:      role,
		ExpiresAt: expiresAt,
	}, nil
}

// Register creates an account and then logs it in, so a successful
// registration has the exact success contract of Login.
func (a *Authenticator) Register(ctx context.Context, in RegisterInput) (AuthResult, error) {
	if _, err := a.users.GetUserByUsername(ctx, in.Username); err == nil {
		return AuthResult{}, ErrDuplicateUser
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("looking up user: %w", err)
	}

	reasons := crypto.ValidatePassword(in.Password)
	if _, err := a.users.GetUserByEmail(ctx, in.Email); err == nil {
		reasons = append(reasons, "email is already in use")
	} else if !errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, fmt.Errorf("looking up email: %w", err)
	}
	if len(reasons) > 0 {
		return AuthResult{}, &RegistrationError{Reasons: reasons}
	}

	hash, err := crypto.HashPassword(in.Password)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hashing password: %w", err)
	}

	user := model.User{
		Username:     in.Username,
		Email:        in.Email,
		FullName:     in.FullName,
		PasswordHash: hash,
		Role:         model.ResolveRole(in.Role),
	}
	if err := a.users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return AuthResult{}, &RegistrationError{Reasons: []string{"username or email is already in use"}}
		}
		return AuthResult{}, fmt.Errorf("creating user: %w", err)
	}

	return a.Login(ctx, in.Username, in.Password)
}
