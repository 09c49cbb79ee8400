package ops

import (
	"database/sql"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/db"
	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/project"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Status         string // optional filter
	Limit          int    // default: 20, max: 100
	Offset         int    // default: 0
	IncludeDeleted bool
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []Summary  `json:"items"`
	Pagination Pagination `json:"pagination"`
	Sort       string     `json:"sort"`
}

// List retrieves project summaries with pagination.
func List(database *sql.DB, input ListInput) (*ListOutput, error) {
	if input.Status != "" && !project.ValidStatus(project.Status(input.Status)) {
		return nil, errors.NewInvalidRequest("status must be one of: active, paused, done")
	}

	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	offset := max(input.Offset, 0)

	recs, total, err := db.ListProjects(database, input.Status, limit, offset, input.IncludeDeleted)
	if err != nil {
		return nil, err
	}

	items := make([]Summary, 0, len(recs))
	for _, rec := range recs {
		items = append(items, Summarize(rec))
	}

	hasMore := offset+len(items) < total

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: hasMore,
			Total:   total,
		},
		Sort: "updated_at_desc",
	}, nil
}

// ListModels loads recent projects into a bindable collection for the
// project.list factory method.
func ListModels(database *sql.DB, cfg *config.Config, status string) (*project.List, error) {
	if status != "" && !project.ValidStatus(project.Status(status)) {
		return nil, errors.NewInvalidRequest("status must be one of: active, paused, done")
	}

	recs, _, err := db.ListProjects(database, status, MaxListLimit, 0, false)
	if err != nil {
		return nil, err
	}

	saver := NewSaver(database, cfg)
	items := make([]*project.Project, 0, len(recs))
	for _, rec := range recs {
		items = append(items, project.Load(saver, rec, cfg.NotesMaxChars))
	}
	return project.NewList(saver, items, cfg.NotesMaxChars), nil
}
