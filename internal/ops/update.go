package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/project"
)

// UpdateInput contains parameters for the Update operation.
// Editable fields are pointers; nil means don't change.
type UpdateInput struct {
	ID string

	Name        *string
	Summary     *string
	Notes       *string
	Status      *string
	Tags        *[]string
	Assignments *[]project.Assignment
	StartedAt   *int64
	DueAt       *int64
}

// UpdateOutput contains the result of the Update operation.
type UpdateOutput struct {
	ID        string `json:"id"`
	UpdatedAt int64  `json:"updated_at"`
}

// Update modifies an existing project inside an edit session: changes are
// applied against a loaded project and committed through its save path, so
// validation and dirty tracking behave exactly as interactive edits do.
func Update(ctx context.Context, database *sql.DB, cfg *config.Config, input UpdateInput) (*UpdateOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}
	if input.Name == nil && input.Summary == nil && input.Notes == nil && input.Status == nil &&
		input.Tags == nil && input.Assignments == nil && input.StartedAt == nil && input.DueAt == nil {
		return nil, errors.NewInvalidRequest("at least one editable field must be provided")
	}
	if input.Notes != nil {
		if err := validateNotes(cfg, *input.Notes); err != nil {
			return nil, err
		}
	}

	p, err := Get(database, cfg, GetInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	p.BeginEdit()
	if input.Name != nil {
		p.Name = *input.Name
	}
	if input.Summary != nil {
		p.Summary = *input.Summary
	}
	if input.Notes != nil {
		p.Notes = *input.Notes
	}
	if input.Status != nil {
		p.Status = project.Status(*input.Status)
	}
	if input.Tags != nil {
		p.Tags = *input.Tags
	}
	if input.Assignments != nil {
		p.Assignments = *input.Assignments
	}
	if input.StartedAt != nil {
		p.StartedAt = input.StartedAt
	}
	if input.DueAt != nil {
		p.DueAt = input.DueAt
	}
	p.ApplyEdit()

	saved, err := p.Save(ctx)
	if err != nil {
		return nil, err
	}

	sp := saved.(*project.Project)
	return &UpdateOutput{
		ID:        sp.ID(),
		UpdatedAt: sp.UpdatedAt(),
	}, nil
}
