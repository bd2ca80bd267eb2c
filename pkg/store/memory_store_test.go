package store

import (
	"testing"
	"time"

	"edureview/pkg/domain"
)

func testUser(id, email string) domain.User {
	now := time.Now().UTC()
	return domain.User{
		ID:           id,
		Email:        email,
		FullName:     "Test User",
		PasswordHash: "$2a$10$fake",
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestMemoryStoreUserLookup(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveUser(testUser("u1", "a@example.com")); err != nil {
		t.Fatalf("save user: %v", err)
	}

	user, ok, err := s.GetUserByID("u1")
	if err != nil || !ok {
		t.Fatalf("get by id: ok=%v err=%v", ok, err)
	}
	if user.Email != "a@example.com" {
		t.Fatalf("unexpected email %q", user.Email)
	}

	user, ok, err = s.GetUserByEmail("a@example.com")
	if err != nil || !ok {
		t.Fatalf("get by email: ok=%v err=%v", ok, err)
	}
	if user.ID != "u1" {
		t.Fatalf("unexpected id %q", user.ID)
	}

	if _, ok, _ := s.GetUserByID("missing"); ok {
		t.Fatal("expected miss for unknown id")
	}
	if exists, _ := s.HasUserEmail("a@example.com"); !exists {
		t.Fatal("expected email to exist")
	}
	if exists, _ := s.HasUserEmail("b@example.com"); exists {
		t.Fatal("did not expect email to exist")
	}
}

func TestMemoryStoreUpdateUser(t *testing.T) {
	s := NewMemoryStore()
	if err := s.SaveUser(testUser("u1", "a@example.com")); err != nil {
		t.Fatalf("save user: %v", err)
	}

	name := "Renamed"
	role := domain.RoleAdmin
	updated, ok, err := s.UpdateUser("u1", UserUpdate{FullName: &name, Role: &role})
	if err != nil || !ok {
		t.Fatalf("update: ok=%v err=%v", ok, err)
	}
	if updated.FullName != "Renamed" || updated.Role != domain.RoleAdmin {
		t.Fatalf("update not applied: %+v", updated)
	}
	if updated.Email != "a@example.com" {
		t.Fatalf("untouched field changed: %q", updated.Email)
	}

	email := "new@example.com"
	if _, ok, _ := s.UpdateUser("u1", UserUpdate{Email: &email}); !ok {
		t.Fatal("email update failed")
	}
	if exists, _ := s.HasUserEmail("a@example.com"); exists {
		t.Fatal("old email still indexed")
	}
	if _, ok, _ := s.GetUserByEmail("new@example.com"); !ok {
		t.Fatal("new email not indexed")
	}

	if _, ok, _ := s.UpdateUser("missing", UserUpdate{FullName: &name}); ok {
		t.Fatal("expected miss for unknown id")
	}
}

func TestMemoryStoreListUsersOrder(t *testing.T) {
	s := NewMemoryStore()
	for _, id := range []string{"u1", "u2", "u3"} {
		if err := s.SaveUser(testUser(id, id+"@example.com")); err != nil {
			t.Fatalf("save user: %v", err)
		}
	}
	users, err := s.ListUsers()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("expected 3 users, got %d", len(users))
	}
	for i, id := range []string{"u1", "u2", "u3"} {
		if users[i].ID != id {
			t.Fatalf("order broken at %d: %q", i, users[i].ID)
		}
	}
}

func TestMemoryStoreReviewOutcomes(t *testing.T) {
	s := NewMemoryStore()
	now := time.Now().UTC()
	outcome := domain.ReviewOutcome{
		ID:           "r1",
		ContentID:    "c1",
		Category:     domain.ReviewLexical,
		Status:       domain.ReviewCompleted,
		Summary:      "No issues found. Content looks good!",
		QualityScore: 100.0,
		CreatedAt:    now,
		CompletedAt:  &now,
	}
	if err := s.SaveReviewOutcome(outcome); err != nil {
		t.Fatalf("save outcome: %v", err)
	}
	got, ok, err := s.GetReviewOutcome("r1")
	if err != nil || !ok {
		t.Fatalf("get outcome: ok=%v err=%v", ok, err)
	}
	if got.QualityScore != 100.0 || got.Status != domain.ReviewCompleted {
		t.Fatalf("unexpected outcome: %+v", got)
	}
	if _, ok, _ := s.GetReviewOutcome("missing"); ok {
		t.Fatal("expected miss for unknown outcome")
	}
}
