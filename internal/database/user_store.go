package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/surrealdb/surrealdb.go"
	"github.com/venturelink/venturelink/internal/domain"
)

// SurrealUserStore encapsulates database operations for users. Credential
// handling (hashing, token issuance) is delegated to SurrealDB's record
// access: SignUp/SignIn go through the "account" access method and return
// a bearer token that Authenticate later validates.
type SurrealUserStore struct {
	db     *surrealdb.DB
	ns     string
	dbName string
}

var _ domain.UserRepository = (*SurrealUserStore)(nil)

// NewSurrealUserStore creates a new SurrealUserStore.
func NewSurrealUserStore(db *surrealdb.DB, ns, dbName string) *SurrealUserStore {
	return &SurrealUserStore{db: db, ns: ns, dbName: dbName}
}

// SignUp registers a new user through the database's record access and
// returns a session token for the created account.
func (s *SurrealUserStore) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	token, err := s.db.SignUp(ctx, map[string]interface{}{
		"ns":       s.ns,
		"db":       s.dbName,
		"ac":       "account",
		"email":    user.Email,
		"name":     user.Name,
		"password": password,
	})

	if err != nil && strings.Contains(err.Error(), "already exists") {
		return "", domain.ErrUserAlreadyExists
	}
	if err == nil && token != "" {
		slog.Info("Successfully signed up user", "email", user.Email)
	}

	return token, err
}

// SignIn authenticates an existing user and returns a session token.
func (s *SurrealUserStore) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	token, err := s.db.SignIn(ctx, map[string]interface{}{
		"ns":       s.ns,
		"db":       s.dbName,
		"ac":       "account",
		"email":    user.Email,
		"password": password,
	})
	if err != nil {
		return "", domain.ErrInvalidCredentials
	}

	return token, nil
}

// Authenticate validates a session token and returns the associated user.
func (s *SurrealUserStore) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if err := s.db.Authenticate(ctx, token); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	users, err := Query[domain.User](ctx, s.db, "SELECT * FROM $auth", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get authenticated user: %w", err)
	}
	if len(users) == 0 || users[0].ID == nil {
		return nil, domain.ErrInvalidCredentials
	}

	user := &users[0]
	user.Password = ""
	return user, nil
}

// FindUserByEmail queries for a single user by their email address.
func (s *SurrealUserStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := "SELECT * FROM user WHERE email = $email"
	params := map[string]any{"email": email}

	user, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if user != nil {
		user.Password = ""
	}
	return user, nil
}

// FindUserByID resolves an opaque participant identifier back to a user.
func (s *SurrealUserStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	query := "SELECT * FROM user WHERE id = <record> $id"
	params := map[string]any{"id": id}

	user, err := QueryOne[domain.User](ctx, s.db, query, params)
	if err != nil {
		return nil, fmt.Errorf("database query failed: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	user.Password = ""
	return user, nil
}
