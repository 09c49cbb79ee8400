package project

import (
	"github.com/hpungsan/trak/internal/errors"
)

// List is an ordered project collection. It implements the Appender and
// Remover traits so list-shaped bindings can grow and shrink it.
type List struct {
	Items []*Project

	notesMax int
	saver    Saver
}

// NewList creates a list whose appended projects persist through saver and
// inherit the notes bound.
func NewList(saver Saver, items []*Project, notesMax int) *List {
	return &List{Items: items, notesMax: notesMax, saver: saver}
}

// AddNew appends a fresh unsaved project and returns it.
func (l *List) AddNew() (any, error) {
	p := New(l.saver, l.notesMax)
	l.Items = append(l.Items, p)
	return p, nil
}

// Remove removes item from the list by identity.
func (l *List) Remove(item any) error {
	p, ok := item.(*Project)
	if !ok {
		return errors.NewInvalidRequest("item is not a project")
	}
	for i, it := range l.Items {
		if it == p {
			l.Items = append(l.Items[:i], l.Items[i+1:]...)
			return nil
		}
	}
	return errors.NewNotFound(p.ID())
}

// Len returns the number of projects in the list.
func (l *List) Len() int { return len(l.Items) }
