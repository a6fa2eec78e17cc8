package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/mini-drive/backend/internal/config"
	"github.com/mini-drive/backend/internal/db"
	"github.com/mini-drive/backend/internal/model"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 64
	minPasswordLength = 8
	maxPasswordLength = 128
)

var defaultRoles = []string{"user"}

// dummyPasswordHash is compared against when the username does not resolve,
// so that hit and miss take the same bcrypt time and response latency does
// not reveal which usernames exist.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// UserStore is the slice of the DB layer the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string, roles []string) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	GetUserByID(ctx context.Context, userID int64) (*model.User, error)
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
}

type accessClaims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

type AuthService struct {
	users     UserStore
	jwtSecret []byte
	accessTTL time.Duration
}

func NewAuthService(users UserStore, cfg config.AuthConfig) (*AuthService, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("%w: JWT_SECRET is required", ErrMisconfigured)
	}
	if cfg.AccessTTL <= 0 {
		return nil, fmt.Errorf("%w: JWT_ACCESS_TTL must be positive", ErrMisconfigured)
	}
	return &AuthService{
		users:     users,
		jwtSecret: []byte(cfg.JWTSecret),
		accessTTL: cfg.AccessTTL,
	}, nil
}

func (s *AuthService) AccessTTL() time.Duration { return s.accessTTL }

// Register creates an account with the default role. The plaintext secret
// only ever exists in this stack frame.
func (s *AuthService) Register(ctx context.Context, username, password string) (*model.User, error) {
	username = strings.TrimSpace(username)
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user, err := s.users.CreateUser(ctx, username, string(hash), defaultRoles)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return nil, ErrConflict
		}
		return nil, err
	}
	return user, nil
}

// Login verifies credentials and issues a signed access token. Disabled
// accounts fail the same way as bad credentials.
func (s *AuthService) Login(ctx context.Context, username, password string) (string, int64, error) {
	user, err := s.users.GetUserByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		if db.IsNoRows(err) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyPasswordHash), []byte(password))
			return "", 0, ErrUnauthorized
		}
		return "", 0, err
	}
	if user.DisabledAt != nil {
		return "", 0, ErrUnauthorized
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", 0, ErrUnauthorized
	}
	return s.generateAccessToken(user)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if db.IsNoRows(err) {
			return ErrUnauthorized
		}
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return ErrUnauthorized
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.users.UpdateUserPassword(ctx, userID, string(hash))
}

// ParseAccessToken verifies signature and expiry and rebuilds the principal
// from claims alone. Pure function of (token, clock, signing key).
func (s *AuthService) ParseAccessToken(tokenStr string) (*model.AuthUser, error) {
	claims := &accessClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenSignatureInvalid
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		default:
			return nil, ErrUnauthorized
		}
	}
	if !token.Valid {
		return nil, ErrUnauthorized
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, ErrTokenMalformed
	}

	return &model.AuthUser{
		ID:       userID,
		Username: claims.Username,
		Roles:    claims.Roles,
	}, nil
}

// EnsureAdmin creates the seed admin account if it does not exist yet. An
// existing account is left untouched, whatever its current password.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return fmt.Errorf("%w: ADMIN_USERNAME/ADMIN_PASSWORD are required", ErrMisconfigured)
	}

	_, err := s.users.GetUserByUsername(ctx, username)
	if err == nil {
		return nil
	}
	if !db.IsNoRows(err) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	_, err = s.users.CreateUser(ctx, username, string(hash), []string{"user", model.RoleAdmin})
	if err != nil && db.IsUniqueViolation(err) {
		// Lost a race against a concurrent boot; the account exists.
		return nil
	}
	return err
}

func (s *AuthService) generateAccessToken(user *model.User) (string, int64, error) {
	now := time.Now()
	claims := accessClaims{
		Username: user.Username,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(user.ID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return "", 0, err
	}
	return signed, int64(s.accessTTL.Seconds()), nil
}

func validateCredentials(username, password string) error {
	var violations []model.FieldViolation
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		violations = append(violations, violation("username",
			fmt.Sprintf("must be between %d and %d characters", minUsernameLength, maxUsernameLength)))
	}
	if strings.ContainsAny(username, " \t\n") {
		violations = append(violations, violation("username", "must not contain whitespace"))
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		violations = append(violations, violation("password",
			fmt.Sprintf("must be between %d and %d characters", minPasswordLength, maxPasswordLength)))
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return &ValidationError{Violations: []model.FieldViolation{
			violation("newPassword",
				fmt.Sprintf("must be between %d and %d characters", minPasswordLength, maxPasswordLength)),
		}}
	}
	return nil
}
