package ops

import (
	"fmt"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/project"
)

// Pagination limits
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// Pagination contains pagination metadata for list operations.
type Pagination struct {
	Limit   int  `json:"limit"`
	Offset  int  `json:"offset"`
	HasMore bool `json:"has_more"`
	Total   int  `json:"total"`
}

// Summary is the list-item shape of a project.
type Summary struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Summary   string   `json:"summary,omitempty"`
	Status    string   `json:"status"`
	Tags      []string `json:"tags,omitempty"`
	UpdatedAt int64    `json:"updated_at"`
}

// Summarize builds a Summary from a stored record.
func Summarize(rec *project.Record) Summary {
	return Summary{
		ID:        rec.ID,
		Name:      rec.Name,
		Summary:   rec.Summary,
		Status:    rec.Status,
		Tags:      rec.Tags,
		UpdatedAt: rec.UpdatedAt,
	}
}

// View is the full JSON shape of a project for CLI and MCP output.
type View struct {
	ID          string               `json:"id"`
	Name        string               `json:"name"`
	Summary     string               `json:"summary,omitempty"`
	Notes       string               `json:"notes,omitempty"`
	Status      string               `json:"status"`
	Tags        []string             `json:"tags,omitempty"`
	Assignments []project.Assignment `json:"assignments,omitempty"`
	StartedAt   *int64               `json:"started_at,omitempty"`
	DueAt       *int64               `json:"due_at,omitempty"`
	CreatedAt   int64                `json:"created_at"`
	UpdatedAt   int64                `json:"updated_at"`
	DeletedAt   *int64               `json:"deleted_at,omitempty"`
}

// ViewOf builds a View from a project's current state.
func ViewOf(p *project.Project) View {
	rec := p.Record()
	return View{
		ID:          rec.ID,
		Name:        rec.Name,
		Summary:     rec.Summary,
		Notes:       rec.Notes,
		Status:      rec.Status,
		Tags:        rec.Tags,
		Assignments: rec.Assignments,
		StartedAt:   rec.StartedAt,
		DueAt:       rec.DueAt,
		CreatedAt:   rec.CreatedAt,
		UpdatedAt:   rec.UpdatedAt,
		DeletedAt:   rec.DeletedAt,
	}
}

// validateNotes bounds the notes size against configuration.
func validateNotes(cfg *config.Config, notes string) error {
	if n := len([]rune(notes)); n > cfg.NotesMaxChars {
		return errors.NewInvalidRequest(
			fmt.Sprintf("notes exceed maximum size: %d chars (max %d)", n, cfg.NotesMaxChars))
	}
	return nil
}
