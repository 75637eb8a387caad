package httpapi

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"prodman/internal/domain"
)

type userStoreStub struct {
	mu      sync.Mutex
	users   map[string]domain.UserAccount
	updates int
}

func (s *userStoreStub) CreateUser(_ context.Context, user domain.UserAccount) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.users == nil {
		s.users = make(map[string]domain.UserAccount)
	}
	s.users[user.Username] = user
	return nil
}

func (s *userStoreStub) ListUsers(_ context.Context) ([]domain.UserAccount, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.UserAccount, 0, len(s.users))
	for _, user := range s.users {
		out = append(out, user)
	}
	return out, nil
}

func (s *userStoreStub) UpdateUserPassword(_ context.Context, username string, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user := s.users[username]
	user.Password = password
	s.users[username] = user
	s.updates++
	return nil
}

func adminOnlyStore() *userStoreStub {
	return &userStoreStub{
		users: map[string]domain.UserAccount{
			"admin": {
				Username:  "admin",
				Password:  "admin123",
				Role:      domain.RoleAdmin,
				Active:    true,
				CreatedAt: time.Now().UTC(),
			},
		},
	}
}

func TestAuthManagerUpgradesLegacyPlainPassword(t *testing.T) {
	store := adminOnlyStore()

	manager := NewAuthManager("test-secret", time.Hour, store)
	_, err := manager.Login(domain.LoginRequest{
		Username: "admin",
		Password: "admin123",
	})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	if len(users) != 1 {
		t.Fatalf("expected 1 user, got %d", len(users))
	}
	if users[0].Password == "admin123" {
		t.Fatalf("expected password to be upgraded from plain-text")
	}
	if !strings.HasPrefix(users[0].Password, "$2") {
		t.Fatalf("expected bcrypt password hash, got %s", users[0].Password)
	}
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, adminOnlyStore())

	if _, err := manager.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatal("expected login to fail with wrong password")
	}
	if _, err := manager.Login(domain.LoginRequest{Username: "ghost", Password: "admin123"}); err == nil {
		t.Fatal("expected login to fail with unknown user")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, adminOnlyStore())

	resp, err := manager.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}

	actor, err := manager.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token failed: %v", err)
	}
	if actor.Username != "admin" || actor.Role != domain.RoleAdmin {
		t.Fatalf("unexpected actor %+v", actor)
	}

	if _, err := manager.ParseToken("not-a-token"); err == nil {
		t.Fatal("expected garbage token to be rejected")
	}

	other := NewAuthManager("different-secret", time.Hour, nil)
	if _, err := other.ParseToken(resp.AccessToken); err == nil {
		t.Fatal("expected token signed with another secret to be rejected")
	}
}

func TestCreateClerkStoresPasswordHash(t *testing.T) {
	store := adminOnlyStore()

	manager := NewAuthManager("test-secret", time.Hour, store)
	clerk, err := manager.CreateClerk(domain.ClerkCreateRequest{
		Username: "newclerk",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("create clerk failed: %v", err)
	}
	if clerk.Username != "newclerk" {
		t.Fatalf("unexpected username %s", clerk.Username)
	}
	if clerk.Role != domain.RoleClerk {
		t.Fatalf("unexpected role %s", clerk.Role)
	}

	users, err := store.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users failed: %v", err)
	}
	var found *domain.UserAccount
	for i := range users {
		if users[i].Username == "newclerk" {
			found = &users[i]
			break
		}
	}
	if found == nil {
		t.Fatalf("expected clerk to be saved")
	}
	if found.Password == "pass1234" {
		t.Fatalf("expected clerk password to be hashed")
	}
	if !strings.HasPrefix(found.Password, "$2") {
		t.Fatalf("expected bcrypt hash prefix, got %s", found.Password)
	}

	_, err = manager.Login(domain.LoginRequest{
		Username: "newclerk",
		Password: "pass1234",
	})
	if err != nil {
		t.Fatalf("login with hashed clerk failed: %v", err)
	}

	if _, err := manager.CreateClerk(domain.ClerkCreateRequest{Username: "newclerk", Password: "pass1234"}); err == nil {
		t.Fatal("expected duplicate username to be rejected")
	}
	if _, err := manager.CreateClerk(domain.ClerkCreateRequest{Username: "ab", Password: "pass1234"}); err == nil {
		t.Fatal("expected short username to be rejected")
	}
	if _, err := manager.CreateClerk(domain.ClerkCreateRequest{Username: "otherclerk", Password: "abc"}); err == nil {
		t.Fatal("expected short password to be rejected")
	}
}

func TestListClerksExcludesAdmins(t *testing.T) {
	manager := NewAuthManager("test-secret", time.Hour, adminOnlyStore())
	if _, err := manager.CreateClerk(domain.ClerkCreateRequest{Username: "clerkone", Password: "pass1234"}); err != nil {
		t.Fatalf("create clerk failed: %v", err)
	}

	clerks := manager.ListClerks()
	if len(clerks) != 1 {
		t.Fatalf("expected 1 clerk, got %d", len(clerks))
	}
	if clerks[0].Username != "clerkone" {
		t.Fatalf("unexpected clerk %+v", clerks[0])
	}
}
