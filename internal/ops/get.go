package ops

import (
	"database/sql"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/db"
	"github.com/hpungsan/trak/internal/project"
)

// GetInput contains parameters for the Get operation.
type GetInput struct {
	ID             string
	IncludeDeleted bool
}

// Get loads a project by ID, bound to the store for subsequent saves and
// carrying the configured notes bound as a validation rule.
func Get(database *sql.DB, cfg *config.Config, input GetInput) (*project.Project, error) {
	rec, err := db.GetByID(database, input.ID, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}
	return project.Load(NewSaver(database, cfg), rec, cfg.NotesMaxChars), nil
}

// NewProject creates a fresh unsaved project bound to the store.
func NewProject(database *sql.DB, cfg *config.Config) *project.Project {
	return project.New(NewSaver(database, cfg), cfg.NotesMaxChars)
}
