package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/project"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete soft-deletes a project through the editable root's deletion mark,
// so the store sees the same path as a binder-driven delete.
func Delete(ctx context.Context, database *sql.DB, cfg *config.Config, input DeleteInput) (*DeleteOutput, error) {
	if input.ID == "" {
		return nil, errors.NewInvalidRequest("id is required")
	}

	p, err := Get(database, cfg, GetInput{ID: input.ID})
	if err != nil {
		return nil, err
	}

	p.MarkDeleted()
	saved, err := p.Save(ctx)
	if err != nil {
		return nil, err
	}

	sp := saved.(*project.Project)
	return &DeleteOutput{
		Deleted: sp.DeletedAt() != nil,
		ID:      sp.ID(),
	}, nil
}
