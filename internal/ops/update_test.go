package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/project"
)

func TestUpdate(t *testing.T) {
	database, cfg, _ := testSetup(t)
	id := mustCreate(t, database, cfg, "apollo")

	out, err := Update(context.Background(), database, cfg, UpdateInput{
		ID:     id,
		Name:   stringPtr("artemis"),
		Status: stringPtr(string(project.StatusPaused)),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if out.ID != id {
		t.Errorf("ID = %q, want %q", out.ID, id)
	}

	p, err := Get(database, cfg, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name != "artemis" || p.Status != project.StatusPaused {
		t.Errorf("got %q/%q after update", p.Name, p.Status)
	}
}

func TestUpdateRequiresField(t *testing.T) {
	database, cfg, _ := testSetup(t)
	id := mustCreate(t, database, cfg, "apollo")

	_, err := Update(context.Background(), database, cfg, UpdateInput{ID: id})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Update with no fields = %v, want INVALID_REQUEST", err)
	}
}

func TestUpdateRejectsInvalidResult(t *testing.T) {
	database, cfg, _ := testSetup(t)
	id := mustCreate(t, database, cfg, "apollo")

	// Blanking the name makes the project invalid; the save must refuse.
	_, err := Update(context.Background(), database, cfg, UpdateInput{
		ID:   id,
		Name: stringPtr(""),
	})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("Update blanking name = %v, want INVALID_REQUEST", err)
	}

	// Stored project is untouched.
	p, err := Get(database, cfg, GetInput{ID: id})
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if p.Name != "apollo" {
		t.Errorf("Name = %q, want apollo", p.Name)
	}
}

func TestUpdateNotFound(t *testing.T) {
	database, cfg, _ := testSetup(t)

	_, err := Update(context.Background(), database, cfg, UpdateInput{
		ID:   "missing",
		Name: stringPtr("x"),
	})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Update = %v, want NOT_FOUND", err)
	}
}

func TestDelete(t *testing.T) {
	database, cfg, _ := testSetup(t)
	id := mustCreate(t, database, cfg, "apollo")

	out, err := Delete(context.Background(), database, cfg, DeleteInput{ID: id})
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !out.Deleted {
		t.Error("Deleted should be true")
	}

	if _, err := Get(database, cfg, GetInput{ID: id}); !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Get after delete = %v, want NOT_FOUND", err)
	}

	// Still reachable when deleted rows are included.
	p, err := Get(database, cfg, GetInput{ID: id, IncludeDeleted: true})
	if err != nil {
		t.Fatalf("Get includeDeleted failed: %v", err)
	}
	if p.DeletedAt() == nil {
		t.Error("DeletedAt should be set")
	}
}

func TestDeleteNotFound(t *testing.T) {
	database, cfg, _ := testSetup(t)

	_, err := Delete(context.Background(), database, cfg, DeleteInput{ID: "missing"})
	if !errors.Is(err, errors.ErrNotFound) {
		t.Errorf("Delete = %v, want NOT_FOUND", err)
	}
}

func TestList(t *testing.T) {
	database, cfg, _ := testSetup(t)
	mustCreate(t, database, cfg, "alpha")
	mustCreate(t, database, cfg, "beta")

	out, err := List(database, ListInput{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(out.Items) != 2 || out.Pagination.Total != 2 {
		t.Errorf("Items = %d, Total = %d, want 2/2", len(out.Items), out.Pagination.Total)
	}
	if out.Pagination.HasMore {
		t.Error("HasMore should be false")
	}
}

func TestListBadStatus(t *testing.T) {
	database, _, _ := testSetup(t)

	_, err := List(database, ListInput{Status: "archived"})
	if !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("List = %v, want INVALID_REQUEST", err)
	}
}
