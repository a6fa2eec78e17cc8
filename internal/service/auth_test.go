package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"golang.org/x/crypto/bcrypt"

	"github.com/mini-drive/backend/internal/config"
	"github.com/mini-drive/backend/internal/model"
)

type fakeUserStore struct {
	users  map[string]*model.User
	nextID int64
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User), nextID: 1}
}

func (f *fakeUserStore) CreateUser(ctx context.Context, username, passwordHash string, roles []string) (*model.User, error) {
	if _, ok := f.users[username]; ok {
		return nil, &pgconn.PgError{Code: "23505"}
	}
	u := &model.User{
		ID:           f.nextID,
		Username:     username,
		PasswordHash: passwordHash,
		Roles:        roles,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	f.nextID++
	f.users[username] = u
	return u, nil
}

func (f *fakeUserStore) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if u, ok := f.users[username]; ok {
		return u, nil
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) GetUserByID(ctx context.Context, userID int64) (*model.User, error) {
	for _, u := range f.users {
		if u.ID == userID {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeUserStore) UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error {
	for _, u := range f.users {
		if u.ID == userID {
			u.PasswordHash = passwordHash
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newTestAuthService(t *testing.T, store UserStore, ttl time.Duration) *AuthService {
	t.Helper()
	svc, err := NewAuthService(store, config.AuthConfig{JWTSecret: "test-secret", AccessTTL: ttl})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}
	return svc
}

func TestRegisterHashesPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, time.Hour)

	user, err := svc.Register(context.Background(), "alice", "correct horse battery")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.PasswordHash == "correct horse battery" {
		t.Fatal("password stored in plaintext")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse battery")); err != nil {
		t.Fatalf("stored hash does not verify: %v", err)
	}
	if len(user.Roles) != 1 || user.Roles[0] != "user" {
		t.Fatalf("unexpected roles %v", user.Roles)
	}
}

func TestRegisterDuplicateUsername(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, time.Hour)

	if _, err := svc.Register(context.Background(), "alice", "password123"); err != nil {
		t.Fatalf("first register: %v", err)
	}
	_, err := svc.Register(context.Background(), "alice", "password456")
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserStore(), time.Hour)

	cases := []struct {
		name     string
		username string
		password string
	}{
		{"short username", "ab", "password123"},
		{"short password", "alice", "short"},
		{"whitespace username", "al ice", "password123"},
		{"long password", "alice", strings.Repeat("x", 129)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.username, tc.password)
			if !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || len(verr.Violations) == 0 {
				t.Fatalf("expected field violations, got %v", err)
			}
		})
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, time.Hour)

	if _, err := svc.Register(context.Background(), "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, _, err := svc.Login(context.Background(), "alice", "wrong-password")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserStore(), time.Hour)

	_, _, err := svc.Login(context.Background(), "nobody", "password123")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestDummyHashIsWellFormed(t *testing.T) {
	// The unknown-user path relies on this constant being a real bcrypt
	// hash; a malformed one would make the comparison return instantly.
	cost, err := bcrypt.Cost([]byte(dummyPasswordHash))
	if err != nil {
		t.Fatalf("dummy hash is not valid bcrypt: %v", err)
	}
	if cost < bcrypt.DefaultCost {
		t.Fatalf("dummy hash cost %d is below the cost real hashes use", cost)
	}
}

func TestLoginDisabledAccount(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, time.Hour)

	if _, err := svc.Register(context.Background(), "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	now := time.Now()
	store.users["alice"].DisabledAt = &now

	_, _, err := svc.Login(context.Background(), "alice", "password123")
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for disabled account, got %v", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, time.Hour)

	user, err := svc.Register(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	token, expiresIn, err := svc.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if expiresIn != 3600 {
		t.Fatalf("expected expiresIn 3600, got %d", expiresIn)
	}

	principal, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if principal.ID != user.ID || principal.Username != "alice" {
		t.Fatalf("unexpected principal %+v", principal)
	}
	if principal.HasRole(model.RoleAdmin) {
		t.Fatal("regular user must not carry the admin role")
	}
}

func TestParseExpiredToken(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, time.Nanosecond)

	if _, err := svc.Register(context.Background(), "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := svc.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	time.Sleep(10 * time.Millisecond)
	_, err = svc.ParseAccessToken(token)
	if !errors.Is(err, ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}
}

func TestParseTokenWrongKey(t *testing.T) {
	store := newFakeUserStore()
	issuer := newTestAuthService(t, store, time.Hour)
	verifier, err := NewAuthService(store, config.AuthConfig{JWTSecret: "other-secret", AccessTTL: time.Hour})
	if err != nil {
		t.Fatalf("NewAuthService: %v", err)
	}

	if _, err := issuer.Register(context.Background(), "alice", "password123"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := issuer.Login(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	_, err = verifier.ParseAccessToken(token)
	if !errors.Is(err, ErrTokenSignatureInvalid) {
		t.Fatalf("expected ErrTokenSignatureInvalid, got %v", err)
	}
}

func TestParseMalformedToken(t *testing.T) {
	svc := newTestAuthService(t, newFakeUserStore(), time.Hour)

	for _, token := range []string{"", "not-a-jwt", "a.b"} {
		if _, err := svc.ParseAccessToken(token); !errors.Is(err, ErrTokenMalformed) {
			t.Fatalf("token %q: expected ErrTokenMalformed, got %v", token, err)
		}
	}
}

func TestChangePassword(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, time.Hour)

	user, err := svc.Register(context.Background(), "alice", "password123")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(context.Background(), user.ID, "wrong", "newpassword1"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for wrong current password, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "password123", "short"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for weak password, got %v", err)
	}
	if err := svc.ChangePassword(context.Background(), user.ID, "password123", "newpassword1"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "alice", "newpassword1"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "alice", "password123"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("old password must no longer work, got %v", err)
	}
}

func TestEnsureAdmin(t *testing.T) {
	store := newFakeUserStore()
	svc := newTestAuthService(t, store, time.Hour)

	if err := svc.EnsureAdmin(context.Background(), "root", "admin-password"); err != nil {
		t.Fatalf("EnsureAdmin: %v", err)
	}
	admin := store.users["root"]
	if admin == nil {
		t.Fatal("admin account not created")
	}
	found := false
	for _, r := range admin.Roles {
		if r == model.RoleAdmin {
			found = true
		}
	}
	if !found {
		t.Fatalf("admin account missing admin role: %v", admin.Roles)
	}

	// A second boot leaves the existing account alone.
	hash := admin.PasswordHash
	if err := svc.EnsureAdmin(context.Background(), "root", "different-password"); err != nil {
		t.Fatalf("EnsureAdmin second run: %v", err)
	}
	if store.users["root"].PasswordHash != hash {
		t.Fatal("existing admin password was overwritten")
	}
}
