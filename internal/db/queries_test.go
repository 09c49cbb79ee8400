package db

import (
	"database/sql"
	"testing"
	"time"

	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/project"
)

func testDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func testRecord(id, name string) *project.Record {
	now := time.Now().Unix()
	return &project.Record{
		ID:        id,
		Name:      name,
		Status:    string(project.StatusActive),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestInsertAndGetByID(t *testing.T) {
	database := testDB(t)

	started := int64(1700000000)
	rec := testRecord("01ARZ3NDEKTSV4RRFFQ69G5FAV", "apollo")
	rec.Summary = "moon landing"
	rec.Notes = "## Plan\n\nLand on the moon."
	rec.Tags = []string{"space", "1969"}
	rec.Assignments = []project.Assignment{{Resource: "nasa", Role: "lead"}}
	rec.StartedAt = &started

	if err := Insert(database, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	got, err := GetByID(database, rec.ID, false)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "apollo" || got.Summary != "moon landing" {
		t.Errorf("got %q/%q, want apollo/moon landing", got.Name, got.Summary)
	}
	if len(got.Tags) != 2 || got.Tags[0] != "space" {
		t.Errorf("Tags = %v, want [space 1969]", got.Tags)
	}
	if len(got.Assignments) != 1 || got.Assignments[0].Resource != "nasa" {
		t.Errorf("Assignments = %v", got.Assignments)
	}
	if got.StartedAt == nil || *got.StartedAt != started {
		t.Errorf("StartedAt = %v, want %d", got.StartedAt, started)
	}
	if got.DueAt != nil {
		t.Errorf("DueAt = %v, want nil", got.DueAt)
	}
}

func TestInsertDuplicateID(t *testing.T) {
	database := testDB(t)

	rec := testRecord("01ARZ3NDEKTSV4RRFFQ69G5FAV", "apollo")
	if err := Insert(database, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	err := Insert(database, rec)
	if err != ErrUniqueConstraint {
		t.Errorf("duplicate Insert = %v, want ErrUniqueConstraint", err)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	database := testDB(t)

	_, err := GetByID(database, "missing", false)
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByID = %v, want NOT_FOUND", err)
	}
}

func TestUpdateByID(t *testing.T) {
	database := testDB(t)

	rec := testRecord("01ARZ3NDEKTSV4RRFFQ69G5FAV", "apollo")
	if err := Insert(database, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	rec.Name = "artemis"
	rec.Status = string(project.StatusPaused)
	if err := UpdateByID(database, rec); err != nil {
		t.Fatalf("UpdateByID failed: %v", err)
	}

	got, err := GetByID(database, rec.ID, false)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.Name != "artemis" || got.Status != string(project.StatusPaused) {
		t.Errorf("got %q/%q after update", got.Name, got.Status)
	}
}

func TestUpdateByIDNotFound(t *testing.T) {
	database := testDB(t)

	rec := testRecord("missing", "x")
	if err := UpdateByID(database, rec); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("UpdateByID = %v, want NOT_FOUND", err)
	}
}

func TestSoftDelete(t *testing.T) {
	database := testDB(t)

	rec := testRecord("01ARZ3NDEKTSV4RRFFQ69G5FAV", "apollo")
	if err := Insert(database, rec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	if err := SoftDelete(database, rec.ID); err != nil {
		t.Fatalf("SoftDelete failed: %v", err)
	}

	// Excluded by default
	if _, err := GetByID(database, rec.ID, false); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("GetByID after delete = %v, want NOT_FOUND", err)
	}

	// Visible with includeDeleted
	got, err := GetByID(database, rec.ID, true)
	if err != nil {
		t.Fatalf("GetByID includeDeleted failed: %v", err)
	}
	if got.DeletedAt == nil {
		t.Error("DeletedAt should be set after soft delete")
	}

	// Second delete: already gone
	if err := SoftDelete(database, rec.ID); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("second SoftDelete = %v, want NOT_FOUND", err)
	}
}

func TestListProjects(t *testing.T) {
	database := testDB(t)

	for i, name := range []string{"alpha", "beta", "gamma"} {
		rec := testRecord(string(rune('a'+i))+"0000000000000000000000000", name)
		rec.UpdatedAt = int64(1000 + i)
		if i == 2 {
			rec.Status = string(project.StatusDone)
		}
		if err := Insert(database, rec); err != nil {
			t.Fatalf("Insert %s failed: %v", name, err)
		}
	}

	recs, total, err := ListProjects(database, "", 10, 0, false)
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if total != 3 || len(recs) != 3 {
		t.Fatalf("total = %d, len = %d, want 3/3", total, len(recs))
	}
	// Ordered by updated_at descending
	if recs[0].Name != "gamma" {
		t.Errorf("first = %q, want gamma", recs[0].Name)
	}

	// Status filter
	recs, total, err = ListProjects(database, string(project.StatusDone), 10, 0, false)
	if err != nil {
		t.Fatalf("ListProjects with status failed: %v", err)
	}
	if total != 1 || recs[0].Name != "gamma" {
		t.Errorf("status filter: total = %d, first = %v", total, recs)
	}

	// Pagination
	recs, total, err = ListProjects(database, "", 2, 2, false)
	if err != nil {
		t.Fatalf("ListProjects paginated failed: %v", err)
	}
	if total != 3 || len(recs) != 1 {
		t.Errorf("paginated: total = %d, len = %d, want 3/1", total, len(recs))
	}
}
