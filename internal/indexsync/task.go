// Package indexsync keeps the search index in step with the catalog store.
//
// Committed changes are journaled, coalesced per document and applied by a
// small worker pool. A worker never copies data out of the change itself: it
// reads the entity's current state and upserts or removes the document, so
// applying a task twice or late is harmless.
package indexsync

import (
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	"github.com/mybookshelf/catalog/internal/store"
)

// Task is pending index work for one document.
type Task struct {
	Kind    domain.Kind `json:"kind"`
	ID      string      `json:"id"`
	Op      store.Op    `json:"op"`
	Version int64       `json:"version"`
	At      time.Time   `json:"at"`  // Commit time of the oldest change merged in
	Seq     uint64      `json:"seq"` // Identifies this enqueue in the journal
}

type key struct {
	kind domain.Kind
	id   string
}

func (t *Task) key() key {
	return key{kind: t.Kind, id: t.ID}
}

// merge folds a newer task for the same document into t. A delete wins
// over an upsert, the highest version wins, the oldest commit time is kept
// for lag accounting and the newest seq becomes the journal owner.
func (t *Task) merge(newer *Task) {
	if newer.Op == store.OpDelete {
		t.Op = store.OpDelete
	}
	t.Version = max(t.Version, newer.Version)
	if newer.At.Before(t.At) {
		t.At = newer.At
	}
	t.Seq = max(t.Seq, newer.Seq)
}

func taskFromChange(c store.Change) *Task {
	return &Task{Kind: c.Kind, ID: c.ID, Op: c.Op, Version: c.Version, At: c.At}
}
