// Package model defines the capability traits a domain object may implement
// to participate in binder-managed lifecycles. A model is any value; the
// binder never assumes a concrete type and probes for traits before invoking
// trait-specific operations. Trait absence is not an error.
package model

import "context"

// Savable is implemented by models that can persist themselves. Save returns
// the post-save model, which replaces the pre-save model wholesale.
type Savable interface {
	Save(ctx context.Context) (any, error)
}

// Undoable is implemented by models supporting bracketed edit sessions.
// BeginEdit snapshots current state, CancelEdit discards changes back to the
// snapshot, ApplyEdit commits them. Calls are synchronous.
type Undoable interface {
	BeginEdit()
	ApplyEdit()
	CancelEdit()
}

// StatusTracker is implemented by models that report change and validity
// status. Both are queried, never set, by the binder.
type StatusTracker interface {
	IsDirty() bool
	IsValid() bool
}

// Appender is implemented by list-shaped models that can grow a new item.
type Appender interface {
	AddNew() (any, error)
}

// Remover is implemented by ordered-collection models.
type Remover interface {
	Remove(item any) error
}

// Deleter is implemented by editable-root models that can be marked for
// deletion. The mark takes effect on the next save.
type Deleter interface {
	MarkDeleted()
}

// Trait names the capability contracts, so the supported set of a model is
// enumerable and testable independent of any concrete type.
type Trait string

const (
	TraitSavable       Trait = "Savable"
	TraitUndoable      Trait = "Undoable"
	TraitStatusTracker Trait = "StatusTracker"
	TraitAppender      Trait = "Appender"
	TraitRemover       Trait = "Remover"
	TraitDeleter       Trait = "Deleter"
)

// As probes m for capability C, returning the typed view and whether m
// implements it. A nil model supports nothing.
func As[C any](m any) (C, bool) {
	c, ok := m.(C)
	return c, ok
}

// Supports reports whether m implements capability C.
func Supports[C any](m any) bool {
	_, ok := m.(C)
	return ok
}

// TraitsOf returns the traits m implements, in a fixed order.
func TraitsOf(m any) []Trait {
	if m == nil {
		return nil
	}

	var traits []Trait
	if Supports[Savable](m) {
		traits = append(traits, TraitSavable)
	}
	if Supports[Undoable](m) {
		traits = append(traits, TraitUndoable)
	}
	if Supports[StatusTracker](m) {
		traits = append(traits, TraitStatusTracker)
	}
	if Supports[Appender](m) {
		traits = append(traits, TraitAppender)
	}
	if Supports[Remover](m) {
		traits = append(traits, TraitRemover)
	}
	if Supports[Deleter](m) {
		traits = append(traits, TraitDeleter)
	}
	return traits
}
