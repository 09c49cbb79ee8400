package db

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/hpungsan/trak/internal/errors"
	"github.com/hpungsan/trak/internal/project"
)

// ErrUniqueConstraint is returned when an insert violates a UNIQUE constraint.
var ErrUniqueConstraint = errors.NewConflict("unique constraint violation")

// Insert stores a new project record.
func Insert(db *sql.DB, rec *project.Record) error {
	tagsJSON, err := marshalJSON(rec.Tags, len(rec.Tags) > 0)
	if err != nil {
		return err
	}
	assignmentsJSON, err := marshalJSON(rec.Assignments, len(rec.Assignments) > 0)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO projects (
			id, name, summary, notes, status,
			tags_json, assignments_json, started_at, due_at,
			created_at, updated_at, deleted_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
	`

	_, err = db.Exec(query,
		rec.ID, rec.Name, rec.Summary, rec.Notes, rec.Status,
		tagsJSON, assignmentsJSON, toNullInt64(rec.StartedAt), toNullInt64(rec.DueAt),
		rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}

	return nil
}

// isUniqueConstraintError checks if the error is a SQLite UNIQUE constraint violation.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	// SQLite returns "UNIQUE constraint failed: ..." for unique violations
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// GetByID retrieves a project record by its ULID.
// If includeDeleted is false, soft-deleted projects are excluded.
func GetByID(db *sql.DB, id string, includeDeleted bool) (*project.Record, error) {
	query := `
		SELECT id, name, summary, notes, status,
			tags_json, assignments_json, started_at, due_at,
			created_at, updated_at, deleted_at
		FROM projects
		WHERE id = ?
	`
	if !includeDeleted {
		query += " AND deleted_at IS NULL"
	}

	row := db.QueryRow(query, id)
	rec, err := scanProject(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound(id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}

	return rec, nil
}

// UpdateByID updates mutable fields of an existing project.
// Sets updated_at to current timestamp. Does NOT change: id, created_at.
func UpdateByID(db *sql.DB, rec *project.Record) error {
	tagsJSON, err := marshalJSON(rec.Tags, len(rec.Tags) > 0)
	if err != nil {
		return err
	}
	assignmentsJSON, err := marshalJSON(rec.Assignments, len(rec.Assignments) > 0)
	if err != nil {
		return err
	}

	now := time.Now().Unix()

	query := `
		UPDATE projects
		SET name = ?, summary = ?, notes = ?, status = ?,
			tags_json = ?, assignments_json = ?, started_at = ?, due_at = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.Exec(query,
		rec.Name, rec.Summary, rec.Notes, rec.Status,
		tagsJSON, assignmentsJSON, toNullInt64(rec.StartedAt), toNullInt64(rec.DueAt),
		now, rec.ID,
	)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(rec.ID)
	}

	rec.UpdatedAt = now

	return nil
}

// SoftDelete marks a project as deleted by setting deleted_at.
func SoftDelete(db *sql.DB, id string) error {
	now := time.Now().Unix()

	query := `
		UPDATE projects
		SET deleted_at = ?, updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := db.Exec(query, now, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return errors.NewInternal(err)
	}
	if rowsAffected == 0 {
		return errors.NewNotFound(id)
	}

	return nil
}

// ListProjects returns project records ordered by updated_at descending,
// optionally filtered by status, plus the total count for pagination.
func ListProjects(db *sql.DB, status string, limit, offset int, includeDeleted bool) ([]*project.Record, int, error) {
	where := "WHERE 1=1"
	args := []any{}
	if !includeDeleted {
		where += " AND deleted_at IS NULL"
	}
	if status != "" {
		where += " AND status = ?"
		args = append(args, status)
	}

	var total int
	countQuery := "SELECT COUNT(*) FROM projects " + where
	if err := db.QueryRow(countQuery, args...).Scan(&total); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	query := `
		SELECT id, name, summary, notes, status,
			tags_json, assignments_json, started_at, due_at,
			created_at, updated_at, deleted_at
		FROM projects ` + where + `
		ORDER BY updated_at DESC
		LIMIT ? OFFSET ?
	`
	args = append(args, limit, offset)

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, 0, errors.NewInternal(err)
	}
	defer rows.Close()

	var recs []*project.Record
	for rows.Next() {
		rec, err := scanProjectRows(rows)
		if err != nil {
			return nil, 0, errors.NewInternal(err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.NewInternal(err)
	}

	return recs, total, nil
}

// scanner abstracts sql.Row and sql.Rows for shared scan logic.
type scanner interface {
	Scan(dest ...any) error
}

// scanProject scans a single row into a project record.
func scanProject(row *sql.Row) (*project.Record, error) {
	return scanInto(row)
}

func scanProjectRows(rows *sql.Rows) (*project.Record, error) {
	return scanInto(rows)
}

func scanInto(s scanner) (*project.Record, error) {
	var (
		rec             project.Record
		tagsJSON        sql.NullString
		assignmentsJSON sql.NullString
		startedAt       sql.NullInt64
		dueAt           sql.NullInt64
		deletedAt       sql.NullInt64
	)

	err := s.Scan(
		&rec.ID, &rec.Name, &rec.Summary, &rec.Notes, &rec.Status,
		&tagsJSON, &assignmentsJSON, &startedAt, &dueAt,
		&rec.CreatedAt, &rec.UpdatedAt, &deletedAt,
	)
	if err != nil {
		return nil, err
	}

	rec.StartedAt = fromNullInt64(startedAt)
	rec.DueAt = fromNullInt64(dueAt)
	rec.DeletedAt = fromNullInt64(deletedAt)

	if tagsJSON.Valid && tagsJSON.String != "" {
		if err := json.Unmarshal([]byte(tagsJSON.String), &rec.Tags); err != nil {
			return nil, err
		}
	}
	if assignmentsJSON.Valid && assignmentsJSON.String != "" {
		if err := json.Unmarshal([]byte(assignmentsJSON.String), &rec.Assignments); err != nil {
			return nil, err
		}
	}

	return &rec, nil
}

// marshalJSON converts a value to a nullable JSON column.
func marshalJSON(v any, present bool) (sql.NullString, error) {
	if !present {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, errors.NewInternal(err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

// toNullInt64 converts a *int64 to sql.NullInt64.
func toNullInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

// fromNullInt64 converts a sql.NullInt64 to *int64.
func fromNullInt64(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	return &v.Int64
}
