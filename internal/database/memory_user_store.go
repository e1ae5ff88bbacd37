package database

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"strings"
	"sync"

	"github.com/google/uuid"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/venturelink/venturelink/internal/domain"
)

// MemoryUserStore is the in-memory UserRepository used when the server runs
// without a database (MESSAGING_BACKEND=memory), and by tests. Accounts and
// sessions vanish on restart.
type MemoryUserStore struct {
	mu      sync.RWMutex
	byEmail map[string]*memoryAccount
	tokens  map[string]string // token -> email
}

type memoryAccount struct {
	user         domain.User
	passwordHash [sha256.Size]byte
}

var _ domain.UserRepository = (*MemoryUserStore)(nil)

// NewMemoryUserStore creates an empty MemoryUserStore.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		byEmail: make(map[string]*memoryAccount),
		tokens:  make(map[string]string),
	}
}

// SignUp registers a new user and returns a session token.
func (s *MemoryUserStore) SignUp(ctx context.Context, user *domain.User, password string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(user.Email))
	if email == "" || password == "" {
		return "", domain.ErrInvalidCredentials
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[email]; exists {
		return "", domain.ErrUserAlreadyExists
	}

	rid := surrealmodels.NewRecordID("user", uuid.NewString())
	account := &memoryAccount{
		user:         domain.User{ID: &rid, Email: email, Name: user.Name},
		passwordHash: sha256.Sum256([]byte(password)),
	}
	s.byEmail[email] = account

	token := uuid.NewString()
	s.tokens[token] = email
	return token, nil
}

// SignIn verifies credentials and returns a session token.
func (s *MemoryUserStore) SignIn(ctx context.Context, user *domain.User, password string) (string, error) {
	email := strings.ToLower(strings.TrimSpace(user.Email))

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.byEmail[email]
	if !ok {
		return "", domain.ErrInvalidCredentials
	}
	hash := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(hash[:], account.passwordHash[:]) != 1 {
		return "", domain.ErrInvalidCredentials
	}

	token := uuid.NewString()
	s.tokens[token] = email
	return token, nil
}

// Authenticate validates a session token and returns the associated user.
func (s *MemoryUserStore) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	email, ok := s.tokens[token]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	account, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrInvalidCredentials
	}
	user := account.user
	return &user, nil
}

// FindUserByEmail returns the user with the given email, or nil.
func (s *MemoryUserStore) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	account, ok := s.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, nil
	}
	user := account.user
	return &user, nil
}

// FindUserByID resolves an opaque participant identifier back to a user.
func (s *MemoryUserStore) FindUserByID(ctx context.Context, id string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, account := range s.byEmail {
		if account.user.ParticipantID() == id {
			user := account.user
			return &user, nil
		}
	}
	return nil, domain.ErrNotFound
}
