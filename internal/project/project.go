// Package project defines the editable project root and project list bound
// by the binder. A Project implements every capability trait: snapshot-stack
// edit sessions, baseline-diff dirty tracking, validation, deletion marking,
// and save through an injected Saver.
package project

import (
	"context"
	"crypto/rand"
	"fmt"
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/trak/internal/errors"
)

// MaxNameChars bounds the project name length (runes).
const MaxNameChars = 200

// Status is the workflow state of a project.
type Status string

const (
	StatusActive Status = "active"
	StatusPaused Status = "paused"
	StatusDone   Status = "done"
)

// ValidStatus reports whether s is a known status.
func ValidStatus(s Status) bool {
	return s == StatusActive || s == StatusPaused || s == StatusDone
}

// Assignment links a resource to a project in a role.
type Assignment struct {
	Resource string `json:"resource"`
	Role     string `json:"role"`
}

// Fields holds the editable state of a project. Everything outside Fields
// (id, timestamps, delete mark) is managed by the store or the edit session.
type Fields struct {
	Name        string
	Summary     string
	Notes       string // markdown
	Status      Status
	Tags        []string
	Assignments []Assignment
	StartedAt   *int64 // unix
	DueAt       *int64 // unix
}

// Saver persists a project and returns a clean post-save copy.
type Saver interface {
	SaveProject(ctx context.Context, p *Project) (*Project, error)
}

// editState is one edit-session snapshot.
type editState struct {
	fields  Fields
	deleted bool
}

// Project is an editable root. Methods are not internally synchronized; the
// binder serializes verb access, and a project must not be shared across
// binders.
type Project struct {
	Fields

	id        string
	isNew     bool
	createdAt int64
	updatedAt int64
	deletedAt *int64

	baseline Fields
	stack    []editState
	deleted  bool

	// notesMax bounds the notes length in runes. Zero means unbounded.
	notesMax int

	saver Saver
}

// New creates an unsaved project with a fresh ULID and active status.
// notesMax bounds the notes length as a validation rule; pass zero for no
// bound.
func New(saver Saver, notesMax int) *Project {
	now := time.Now().Unix()
	p := &Project{
		id:        newID(),
		isNew:     true,
		createdAt: now,
		updatedAt: now,
		notesMax:  notesMax,
		saver:     saver,
	}
	p.Status = StatusActive
	p.baseline = cloneFields(p.Fields)
	return p
}

// Record is the persistence-boundary shape of a project.
type Record struct {
	ID          string
	Name        string
	Summary     string
	Notes       string
	Status      string
	Tags        []string
	Assignments []Assignment
	StartedAt   *int64
	DueAt       *int64
	CreatedAt   int64
	UpdatedAt   int64
	DeletedAt   *int64
}

// Load builds a clean project from a stored record. notesMax bounds the
// notes length as a validation rule; pass zero for no bound.
func Load(saver Saver, rec *Record, notesMax int) *Project {
	p := &Project{
		id:        rec.ID,
		createdAt: rec.CreatedAt,
		updatedAt: rec.UpdatedAt,
		deletedAt: rec.DeletedAt,
		notesMax:  notesMax,
		saver:     saver,
	}
	p.Fields = Fields{
		Name:        rec.Name,
		Summary:     rec.Summary,
		Notes:       rec.Notes,
		Status:      Status(rec.Status),
		Tags:        slices.Clone(rec.Tags),
		Assignments: slices.Clone(rec.Assignments),
		StartedAt:   rec.StartedAt,
		DueAt:       rec.DueAt,
	}
	p.baseline = cloneFields(p.Fields)
	return p
}

// Record returns the persistence-boundary shape of the current state.
func (p *Project) Record() *Record {
	return &Record{
		ID:          p.id,
		Name:        p.Name,
		Summary:     p.Summary,
		Notes:       p.Notes,
		Status:      string(p.Status),
		Tags:        slices.Clone(p.Tags),
		Assignments: slices.Clone(p.Assignments),
		StartedAt:   p.StartedAt,
		DueAt:       p.DueAt,
		CreatedAt:   p.createdAt,
		UpdatedAt:   p.updatedAt,
		DeletedAt:   p.deletedAt,
	}
}

// ID returns the project's ULID.
func (p *Project) ID() string { return p.id }

// IsNew reports whether the project has never been persisted.
func (p *Project) IsNew() bool { return p.isNew }

// CreatedAt returns the creation unix timestamp.
func (p *Project) CreatedAt() int64 { return p.createdAt }

// UpdatedAt returns the last-persisted unix timestamp.
func (p *Project) UpdatedAt() int64 { return p.updatedAt }

// DeletedAt returns the soft-delete timestamp, or nil.
func (p *Project) DeletedAt() *int64 { return p.deletedAt }

// MarkedDeleted reports whether the project is marked for deletion.
func (p *Project) MarkedDeleted() bool { return p.deleted }

// BeginEdit pushes a snapshot of the editable state. Sessions nest; each
// CancelEdit unwinds one level.
func (p *Project) BeginEdit() {
	p.stack = append(p.stack, editState{
		fields:  cloneFields(p.Fields),
		deleted: p.deleted,
	})
}

// CancelEdit discards changes back to the innermost snapshot. No-op without
// an open session.
func (p *Project) CancelEdit() {
	if len(p.stack) == 0 {
		return
	}
	top := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	p.Fields = cloneFields(top.fields)
	p.deleted = top.deleted
}

// ApplyEdit commits the innermost session, keeping current values. No-op
// without an open session.
func (p *Project) ApplyEdit() {
	if len(p.stack) == 0 {
		return
	}
	p.stack = p.stack[:len(p.stack)-1]
}

// EditLevel returns the number of open edit sessions.
func (p *Project) EditLevel() int { return len(p.stack) }

// IsDirty reports whether the editable state differs from the last persisted
// baseline, or the project is marked for deletion.
func (p *Project) IsDirty() bool {
	return p.deleted || !fieldsEqual(p.Fields, p.baseline)
}

// IsValid reports whether the project passes validation.
func (p *Project) IsValid() bool {
	return len(p.Problems()) == 0
}

// Problems returns human-readable validation failures, or nil.
func (p *Project) Problems() []string {
	var problems []string
	if p.Name == "" {
		problems = append(problems, "name is required")
	}
	if n := len([]rune(p.Name)); n > MaxNameChars {
		problems = append(problems, fmt.Sprintf("name exceeds %d chars (%d)", MaxNameChars, n))
	}
	if p.notesMax > 0 {
		if n := len([]rune(p.Notes)); n > p.notesMax {
			problems = append(problems, fmt.Sprintf("notes exceed %d chars (%d)", p.notesMax, n))
		}
	}
	if !ValidStatus(p.Status) {
		problems = append(problems, fmt.Sprintf("unknown status %q", p.Status))
	}
	if p.StartedAt != nil && p.DueAt != nil && *p.DueAt < *p.StartedAt {
		problems = append(problems, "due date is before start date")
	}
	return problems
}

// MarkDeleted marks the project for deletion on the next save.
func (p *Project) MarkDeleted() {
	p.deleted = true
}

// Save validates and persists the project through its Saver, returning the
// clean post-save project. A project marked for deletion is soft-deleted.
func (p *Project) Save(ctx context.Context) (any, error) {
	if p.saver == nil {
		return nil, errors.NewInvalidState("project has no persistence bound")
	}
	if problems := p.Problems(); len(problems) > 0 {
		return nil, errors.NewInvalidRequest("project is invalid: " + problems[0])
	}
	saved, err := p.saver.SaveProject(ctx, p)
	if err != nil {
		return nil, err
	}
	return saved, nil
}

func newID() string {
	entropy := ulid.Monotonic(rand.Reader, 0)
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}

func cloneFields(f Fields) Fields {
	c := f
	c.Tags = slices.Clone(f.Tags)
	c.Assignments = slices.Clone(f.Assignments)
	return c
}

func fieldsEqual(a, b Fields) bool {
	if a.Name != b.Name || a.Summary != b.Summary || a.Notes != b.Notes || a.Status != b.Status {
		return false
	}
	if !slices.Equal(a.Tags, b.Tags) || !slices.Equal(a.Assignments, b.Assignments) {
		return false
	}
	if !int64PtrEqual(a.StartedAt, b.StartedAt) || !int64PtrEqual(a.DueAt, b.DueAt) {
		return false
	}
	return true
}

func int64PtrEqual(a, b *int64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
