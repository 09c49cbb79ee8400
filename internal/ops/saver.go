package ops

import (
	"context"
	"database/sql"
	"time"

	"github.com/hpungsan/trak/internal/config"
	"github.com/hpungsan/trak/internal/db"
	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/project"
)

// Saver persists projects into the SQLite store, implementing project.Saver.
// Projects it reloads carry the configured notes bound.
type Saver struct {
	db  *sql.DB
	cfg *config.Config
}

// NewSaver creates a Saver over the given database.
func NewSaver(database *sql.DB, cfg *config.Config) *Saver {
	return &Saver{db: database, cfg: cfg}
}

// SaveProject persists p and returns a clean reload. A project marked for
// deletion is soft-deleted; its reload carries the deletion timestamp.
func (s *Saver) SaveProject(_ context.Context, p *project.Project) (*project.Project, error) {
	if p.MarkedDeleted() {
		if p.IsNew() {
			return nil, errors.NewInvalidState("cannot delete a project that was never saved")
		}
		if err := db.SoftDelete(s.db, p.ID()); err != nil {
			return nil, err
		}
		rec, err := db.GetByID(s.db, p.ID(), true)
		if err != nil {
			return nil, err
		}
		return project.Load(s, rec, s.cfg.NotesMaxChars), nil
	}

	rec := p.Record()
	rec.UpdatedAt = time.Now().Unix()

	if p.IsNew() {
		if err := db.Insert(s.db, rec); err != nil {
			return nil, err
		}
	} else {
		if err := db.UpdateByID(s.db, rec); err != nil {
			return nil, err
		}
	}

	fresh, err := db.GetByID(s.db, p.ID(), false)
	if err != nil {
		return nil, err
	}
	return project.Load(s, fresh, s.cfg.NotesMaxChars), nil
}
