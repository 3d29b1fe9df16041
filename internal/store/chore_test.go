package store

import (
	"testing"
	"time"

	"github.com/rfinnegan/chorewheel/internal/database"
	"github.com/rfinnegan/chorewheel/internal/model"
)

func setupTestDB(t *testing.T) (*ChoreStore, *HouseholdStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	hs := NewHouseholdStore(db)
	h, err := hs.Create("Test House")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	return NewChoreStore(db), hs, h.ID
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestZoneCRUD(t *testing.T) {
	cs, _, hid := setupTestDB(t)

	zone, err := cs.CreateZone(hid, "Kitchen", 1)
	if err != nil {
		t.Fatalf("create zone: %v", err)
	}
	if zone.Name != "Kitchen" {
		t.Errorf("name = %q, want %q", zone.Name, "Kitchen")
	}

	updated, err := cs.UpdateZone(zone.ID, "Kitchen & Pantry", 2)
	if err != nil {
		t.Fatalf("update zone: %v", err)
	}
	if updated.Name != "Kitchen & Pantry" {
		t.Errorf("updated name = %q, want %q", updated.Name, "Kitchen & Pantry")
	}

	zones, err := cs.ListZones(hid)
	if err != nil {
		t.Fatalf("list zones: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("expected 1 zone, got %d", len(zones))
	}

	if err := cs.DeleteZone(zone.ID); err != nil {
		t.Fatalf("delete zone: %v", err)
	}
	got, err := cs.GetZoneByID(zone.ID)
	if err != nil {
		t.Fatalf("get deleted zone: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted zone")
	}
}

func TestChoreCRUDWithRotation(t *testing.T) {
	cs, _, hid := setupTestDB(t)

	chore, err := cs.Create(model.Chore{
		HouseholdID:          hid,
		Title:                "Take out trash",
		FrequencyDays:        7,
		StartDate:            day(2024, 1, 1),
		Strategy:             model.AssignRotation,
		RotationSequence:     []int64{3, 7, 12},
		RotationIntervalDays: 7,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}
	if chore.Title != "Take out trash" {
		t.Errorf("title = %q, want %q", chore.Title, "Take out trash")
	}
	if len(chore.RotationSequence) != 3 || chore.RotationSequence[1] != 7 {
		t.Errorf("rotation sequence = %v, want [3 7 12]", chore.RotationSequence)
	}
	if !chore.StartDate.Equal(day(2024, 1, 1)) {
		t.Errorf("start date = %v, want 2024-01-01", chore.StartDate)
	}

	chore.Title = "Trash & recycling"
	chore.RotationSequence = []int64{3, 12}
	updated, err := cs.Update(*chore)
	if err != nil {
		t.Fatalf("update chore: %v", err)
	}
	if updated.Title != "Trash & recycling" {
		t.Errorf("updated title = %q", updated.Title)
	}
	if len(updated.RotationSequence) != 2 {
		t.Errorf("updated rotation sequence = %v, want [3 12]", updated.RotationSequence)
	}

	if err := cs.Delete(chore.ID); err != nil {
		t.Fatalf("delete chore: %v", err)
	}
	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get deleted chore: %v", err)
	}
	if got != nil {
		t.Error("expected nil for deleted chore")
	}
}

func TestArchiveExcludesFromList(t *testing.T) {
	cs, _, hid := setupTestDB(t)

	chore, err := cs.Create(model.Chore{
		HouseholdID:   hid,
		Title:         "Water plants",
		FrequencyDays: 3,
		StartDate:     day(2024, 1, 1),
		Strategy:      model.AssignNone,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	if err := cs.Archive(chore.ID); err != nil {
		t.Fatalf("archive: %v", err)
	}

	active, err := cs.ListByHousehold(hid, false)
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expected no active chores, got %d", len(active))
	}

	all, err := cs.ListByHousehold(hid, true)
	if err != nil {
		t.Fatalf("list all: %v", err)
	}
	if len(all) != 1 || !all[0].Archived {
		t.Errorf("expected 1 archived chore, got %+v", all)
	}

	// History survives archiving.
	got, err := cs.GetByID(chore.ID)
	if err != nil {
		t.Fatalf("get archived: %v", err)
	}
	if got == nil {
		t.Fatal("archived chore should still exist")
	}
}

func TestOverrideUpsertReplaces(t *testing.T) {
	cs, _, hid := setupTestDB(t)

	chore, err := cs.Create(model.Chore{
		HouseholdID:   hid,
		Title:         "Mop floors",
		FrequencyDays: 7,
		StartDate:     day(2024, 1, 1),
		Strategy:      model.AssignNone,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	original := day(2024, 1, 8)

	// First write: skip.
	first, err := cs.UpsertOverride(chore.ID, original, true, nil, nil)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if !first.Skipped {
		t.Error("first override should be skipped")
	}

	// Second write for the same date: reassign instead.
	member := int64(9)
	second, err := cs.UpsertOverride(chore.ID, original, false, &member, nil)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if second.Skipped {
		t.Error("replaced override should not be skipped")
	}
	if second.NewAssignee == nil || *second.NewAssignee != 9 {
		t.Errorf("new assignee = %v, want 9", second.NewAssignee)
	}

	// Exactly one override row for the date.
	overrides, err := cs.ListOverridesByChore(chore.ID)
	if err != nil {
		t.Fatalf("list overrides: %v", err)
	}
	if len(overrides) != 1 {
		t.Fatalf("expected exactly 1 override, got %d", len(overrides))
	}
	if overrides[0].ID != first.ID {
		t.Errorf("override row id changed from %d to %d; expected in-place replace", first.ID, overrides[0].ID)
	}
}

func TestOverrideReschedule(t *testing.T) {
	cs, _, hid := setupTestDB(t)

	chore, err := cs.Create(model.Chore{
		HouseholdID:   hid,
		Title:         "Clean bathroom",
		FrequencyDays: 7,
		StartDate:     day(2024, 1, 1),
		Strategy:      model.AssignNone,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	moved := day(2024, 1, 10)
	ov, err := cs.UpsertOverride(chore.ID, day(2024, 1, 8), false, nil, &moved)
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if ov.NewDate == nil || !ov.NewDate.Equal(moved) {
		t.Errorf("new date = %v, want %v", ov.NewDate, moved)
	}
	if !ov.OriginalDate.Equal(day(2024, 1, 8)) {
		t.Errorf("original date = %v, want 2024-01-08", ov.OriginalDate)
	}

	if err := cs.DeleteOverride(chore.ID, day(2024, 1, 8)); err != nil {
		t.Fatalf("delete override: %v", err)
	}
	got, err := cs.GetOverride(chore.ID, day(2024, 1, 8))
	if err != nil {
		t.Fatalf("get deleted override: %v", err)
	}
	if got != nil {
		t.Error("expected nil after delete")
	}
}

func TestCompletions(t *testing.T) {
	cs, hs, hid := setupTestDB(t)

	us := NewUserStore(cs.db)
	user, err := us.Create("rowan@example.com", "Rowan", "x")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	member, err := hs.AddMember(hid, user.ID, "Rowan", model.RoleMember)
	if err != nil {
		t.Fatalf("add member: %v", err)
	}

	chore, err := cs.Create(model.Chore{
		HouseholdID:   hid,
		Title:         "Dishes",
		FrequencyDays: 1,
		StartDate:     day(2024, 1, 1),
		Strategy:      model.AssignNone,
	})
	if err != nil {
		t.Fatalf("create chore: %v", err)
	}

	at := time.Date(2024, 1, 5, 19, 30, 0, 0, time.UTC)
	comp, err := cs.CreateCompletion(chore.ID, &member.ID, at, "used the new sponge")
	if err != nil {
		t.Fatalf("create completion: %v", err)
	}
	if comp.CompletedBy == nil || *comp.CompletedBy != member.ID {
		t.Errorf("completed_by = %v, want %d", comp.CompletedBy, member.ID)
	}
	if comp.Notes != "used the new sponge" {
		t.Errorf("notes = %q", comp.Notes)
	}

	inRange, err := cs.ListCompletionsInRange(chore.ID, day(2024, 1, 5), day(2024, 1, 6))
	if err != nil {
		t.Fatalf("list in range: %v", err)
	}
	if len(inRange) != 1 {
		t.Errorf("expected 1 completion in range, got %d", len(inRange))
	}

	outside, err := cs.ListCompletionsInRange(chore.ID, day(2024, 1, 6), day(2024, 1, 7))
	if err != nil {
		t.Fatalf("list outside range: %v", err)
	}
	if len(outside) != 0 {
		t.Errorf("expected 0 completions outside range, got %d", len(outside))
	}
}
