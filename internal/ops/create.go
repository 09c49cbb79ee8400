package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/project"
)

// CreateInput contains parameters for the Create operation.
type CreateInput struct {
	Name        string // required
	Summary     string
	Notes       string
	Status      string // default: active
	Tags        []string
	Assignments []project.Assignment
	StartedAt   *int64
	DueAt       *int64
}

// CreateOutput contains the result of the Create operation.
type CreateOutput struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// Create validates and persists a new project.
func Create(ctx context.Context, database *sql.DB, cfg *config.Config, input CreateInput) (*CreateOutput, error) {
	if input.Name == "" {
		return nil, errors.NewInvalidRequest("name is required")
	}
	if err := validateNotes(cfg, input.Notes); err != nil {
		return nil, err
	}

	p := NewProject(database, cfg)
	p.Name = input.Name
	p.Summary = input.Summary
	p.Notes = input.Notes
	if input.Status != "" {
		p.Status = project.Status(input.Status)
	}
	p.Tags = input.Tags
	p.Assignments = input.Assignments
	p.StartedAt = input.StartedAt
	p.DueAt = input.DueAt

	saved, err := p.Save(ctx)
	if err != nil {
		return nil, err
	}

	sp := saved.(*project.Project)
	return &CreateOutput{
		ID:     sp.ID(),
		Status: string(sp.Status),
	}, nil
}
