package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
)

type Service struct {
	users Repository
	jwt   auth.JWTConfig
}

func NewService(users Repository, jwt auth.JWTConfig) *Service {
	return &Service{users: users, jwt: jwt}
}

func (s *Service) Register(ctx context.Context, name, email, password string) (*User, error) {
	name = strings.TrimSpace(name)
	email = strings.ToLower(strings.TrimSpace(email))
	if name == "" {
		return nil, fmt.Errorf("name is required")
	}
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("a valid email is required")
	}
	if len(password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if existing, err := s.users.GetByEmail(ctx, email); err == nil && existing != nil {
		return nil, fmt.Errorf("email already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &User{Name: name, Email: email, PasswordHash: string(hash), Role: auth.RoleUser}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Login verifies credentials and issues a signed token. Wrong email and wrong
// password produce the same error so callers cannot probe for accounts.
func (s *Service) Login(ctx context.Context, email, password string) (*User, string, error) {
	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, "", fmt.Errorf("invalid credentials")
	}
	token, err := auth.IssueToken(s.jwt, u.ID, u.Role)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.users.GetByID(ctx, id)
}

func (s *Service) SetDeviceToken(ctx context.Context, id uuid.UUID, token *string) error {
	if token != nil && strings.TrimSpace(*token) == "" {
		return fmt.Errorf("device token must not be blank")
	}
	if _, err := s.users.GetByID(ctx, id); err != nil {
		return err
	}
	return s.users.UpdateDeviceToken(ctx, id, token)
}
