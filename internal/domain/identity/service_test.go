package identity

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/GitQunA1/MedTime-BE-sub000/internal/platform/auth"
)

type mockUserRepo struct {
	users map[uuid.UUID]*User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*User)}
}

func (m *mockUserRepo) Create(_ context.Context, u *User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	m.users[u.ID] = u
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	u, ok := m.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return u, nil
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (m *mockUserRepo) UpdateDeviceToken(_ context.Context, id uuid.UUID, token *string) error {
	u, ok := m.users[id]
	if !ok {
		return pgx.ErrNoRows
	}
	u.DeviceToken = token
	return nil
}

func (m *mockUserRepo) ListWithDeviceToken(_ context.Context, ids []uuid.UUID) ([]*User, error) {
	var out []*User
	for _, id := range ids {
		if u, ok := m.users[id]; ok && u.DeviceToken != nil {
			out = append(out, u)
		}
	}
	return out, nil
}

func testJWT() auth.JWTConfig {
	return auth.JWTConfig{Secret: []byte("test-secret"), TTL: time.Hour}
}

func TestRegister(t *testing.T) {
	svc := NewService(newMockUserRepo(), testJWT())
	ctx := context.Background()

	u, err := svc.Register(ctx, "Asha", "Asha@Example.com", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if u.Email != "asha@example.com" {
		t.Errorf("email = %q, want lowercased", u.Email)
	}
	if u.Role != auth.RoleUser {
		t.Errorf("role = %q, want USER", u.Role)
	}
	if u.PasswordHash == "correct horse" || u.PasswordHash == "" {
		t.Error("password must be stored hashed")
	}

	if _, err := svc.Register(ctx, "Asha again", "asha@example.com", "correct horse"); err == nil {
		t.Error("expected duplicate email to be rejected")
	}
}

func TestRegister_Validation(t *testing.T) {
	svc := NewService(newMockUserRepo(), testJWT())
	ctx := context.Background()

	tests := []struct {
		name, userName, email, password string
	}{
		{"blank name", "", "a@b.c", "longenough"},
		{"bad email", "Asha", "not-an-email", "longenough"},
		{"short password", "Asha", "a@b.c", "short"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.userName, tt.email, tt.password); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc := NewService(newMockUserRepo(), testJWT())
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Asha", "asha@example.com", "correct horse"); err != nil {
		t.Fatalf("register: %v", err)
	}

	u, token, err := svc.Login(ctx, "asha@example.com", "correct horse")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if token == "" {
		t.Error("expected a token")
	}
	if u.Email != "asha@example.com" {
		t.Errorf("user = %+v", u)
	}
}

func TestLogin_WrongCredentialsIndistinguishable(t *testing.T) {
	svc := NewService(newMockUserRepo(), testJWT())
	ctx := context.Background()
	if _, err := svc.Register(ctx, "Asha", "asha@example.com", "correct horse"); err != nil {
		t.Fatalf("register: %v", err)
	}

	_, _, errWrongPass := svc.Login(ctx, "asha@example.com", "wrong")
	_, _, errNoUser := svc.Login(ctx, "nobody@example.com", "correct horse")
	if errWrongPass == nil || errNoUser == nil {
		t.Fatal("expected both logins to fail")
	}
	if errWrongPass.Error() != errNoUser.Error() {
		t.Error("wrong password and unknown email must produce the same error")
	}
}

func TestSetDeviceToken(t *testing.T) {
	repo := newMockUserRepo()
	svc := NewService(repo, testJWT())
	ctx := context.Background()
	u, _ := svc.Register(ctx, "Asha", "asha@example.com", "correct horse")

	tok := "device-abc"
	if err := svc.SetDeviceToken(ctx, u.ID, &tok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.users[u.ID].DeviceToken == nil || *repo.users[u.ID].DeviceToken != "device-abc" {
		t.Error("expected device token stored")
	}

	blank := "  "
	if err := svc.SetDeviceToken(ctx, u.ID, &blank); err == nil {
		t.Error("expected blank token to be rejected")
	}

	if err := svc.SetDeviceToken(ctx, u.ID, nil); err != nil {
		t.Fatalf("clearing the token should succeed, got %v", err)
	}
	if repo.users[u.ID].DeviceToken != nil {
		t.Error("expected device token cleared")
	}
}
