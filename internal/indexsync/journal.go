package indexsync

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dgraph-io/badger/v4"
)

const journalPrefix = "pending/"

// Journal persists pending tasks in Badger so that work accepted before a
// crash or shutdown is replayed on the next start.
type Journal struct {
	db     *badger.DB
	logger *slog.Logger
}

// OpenJournal opens the journal at path. An empty path keeps it in memory.
func OpenJournal(path string, logger *slog.Logger) (*Journal, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	} else {
		opts.SyncWrites = true       // Accepted work must survive a crash
		opts.CompactL0OnClose = true // Compact L0 tables on close for faster startup
	}
	opts.Logger = nil // Disable Badger's internal logging

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open sync journal: %w", err)
	}

	logger.Info("sync journal opened", "path", path, "in_memory", path == "")
	return &Journal{db: db, logger: logger}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

func journalKey(t *Task) []byte {
	return []byte(journalPrefix + string(t.Kind) + "/" + t.ID)
}

// Put records tasks, replacing older entries for the same documents.
func (j *Journal) Put(tasks []*Task) error {
	wb := j.db.NewWriteBatch()
	defer wb.Cancel()

	for _, t := range tasks {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal task: %w", err)
		}
		if err := wb.Set(journalKey(t), data); err != nil {
			return fmt.Errorf("journal %s %s: %w", t.Kind, t.ID, err)
		}
	}
	return wb.Flush()
}

// Ack removes the entry for t unless a newer enqueue replaced it.
func (j *Journal) Ack(t *Task) error {
	return j.db.Update(func(txn *badger.Txn) error {
		k := journalKey(t)
		item, err := txn.Get(k)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		var stored Task
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		}); err != nil {
			return fmt.Errorf("unmarshal task: %w", err)
		}
		if stored.Seq > t.Seq {
			return nil
		}
		return txn.Delete(k)
	})
}

// Pending returns every journaled task.
func (j *Journal) Pending() ([]*Task, error) {
	var tasks []*Task
	prefix := []byte(journalPrefix)

	err := j.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var t Task
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &t)
			})
			if err != nil {
				j.logger.Warn("dropping unreadable journal entry", "key", string(it.Item().Key()), "error", err)
				continue
			}
			tasks = append(tasks, &t)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read sync journal: %w", err)
	}
	return tasks, nil
}

// Len returns the number of journaled tasks.
func (j *Journal) Len() (int, error) {
	tasks, err := j.Pending()
	return len(tasks), err
}
