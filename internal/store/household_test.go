package store

import (
	"testing"

	"github.com/rfinnegan/chorewheel/internal/database"
	"github.com/rfinnegan/chorewheel/internal/model"
)

func setupHouseholdTest(t *testing.T) (*HouseholdStore, *UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewHouseholdStore(db), NewUserStore(db)
}

func TestHouseholdCRUD(t *testing.T) {
	hs, _ := setupHouseholdTest(t)

	h, err := hs.Create("Maple Street")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if h.Name != "Maple Street" {
		t.Errorf("name = %q", h.Name)
	}

	updated, err := hs.Update(h.ID, "Maple St")
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Name != "Maple St" {
		t.Errorf("updated name = %q", updated.Name)
	}

	if err := hs.Delete(h.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err := hs.GetByID(h.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted household")
	}
}

func TestMembership(t *testing.T) {
	hs, us := setupHouseholdTest(t)

	h, err := hs.Create("Maple Street")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	u, err := us.Create("casey@example.com", "Casey", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	m, err := hs.AddMember(h.ID, u.ID, "Casey", model.RoleAdmin)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
	if m.Role != model.RoleAdmin {
		t.Errorf("role = %q, want admin", m.Role)
	}

	got, err := hs.GetMember(h.ID, u.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got == nil || got.ID != m.ID {
		t.Fatalf("get member = %+v, want id %d", got, m.ID)
	}

	households, err := hs.ListHouseholdsForUser(u.ID)
	if err != nil {
		t.Fatalf("list households: %v", err)
	}
	if len(households) != 1 || households[0].ID != h.ID {
		t.Errorf("households = %+v, want [%d]", households, h.ID)
	}

	demoted, err := hs.UpdateMemberRole(m.ID, model.RoleMember)
	if err != nil {
		t.Fatalf("update role: %v", err)
	}
	if demoted.Role != model.RoleMember {
		t.Errorf("role = %q, want member", demoted.Role)
	}

	if err := hs.RemoveMember(h.ID, u.ID); err != nil {
		t.Fatalf("remove member: %v", err)
	}
	gone, err := hs.GetMember(h.ID, u.ID)
	if err != nil {
		t.Fatalf("get removed member: %v", err)
	}
	if gone != nil {
		t.Error("expected nil for removed member")
	}
}

func TestGetMemberWrongHousehold(t *testing.T) {
	hs, us := setupHouseholdTest(t)

	h1, _ := hs.Create("One")
	h2, _ := hs.Create("Two")
	u, err := us.Create("casey@example.com", "Casey", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := hs.AddMember(h1.ID, u.ID, "Casey", model.RoleMember); err != nil {
		t.Fatalf("add member: %v", err)
	}

	got, err := hs.GetMember(h2.ID, u.ID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if got != nil {
		t.Error("user must not resolve as member of a household they never joined")
	}
}
