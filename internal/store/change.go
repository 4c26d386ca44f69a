package store

import (
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
)

// Op is the kind of mutation a Change reports.
type Op string

// Change operations.
const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Change reports one committed mutation. Version is the version written, or
// the last version for deletes. Changes to entities that embed the mutated
// one (ebooks of a renamed author) are reported with the ebook's current
// version.
type Change struct {
	Kind    domain.Kind
	ID      string
	Version int64
	Op      Op
	At      time.Time // Commit time
}

// ChangeNotifier receives the changes of each committed transaction.
// Notify is called after commit and must not block on slow work.
type ChangeNotifier interface {
	Notify(changes []Change)
}

// NoopNotifier discards changes.
type NoopNotifier struct{}

// Notify implements ChangeNotifier.
func (NoopNotifier) Notify([]Change) {}
