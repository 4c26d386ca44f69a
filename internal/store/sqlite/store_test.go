package sqlite

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s, err := Open(dbPath, Options{}, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// recorder collects notified changes.
type recorder struct {
	mu      sync.Mutex
	changes []store.Change
}

func (r *recorder) Notify(changes []store.Change) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.changes = append(r.changes, changes...)
}

func (r *recorder) take() []store.Change {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.changes
	r.changes = nil
	return out
}

func (r *recorder) has(kind domain.Kind, id string, op store.Op) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.changes {
		if c.Kind == kind && c.ID == id && c.Op == op {
			return true
		}
	}
	return false
}

func ptr[T any](v T) *T { return &v }

func mustLanguage(t *testing.T, s *Store, code string) *domain.Language {
	t.Helper()
	l := &domain.Language{Code: code, Name: "Language " + code}
	if err := s.Languages().Create(context.Background(), l, "tester"); err != nil {
		t.Fatalf("create language: %v", err)
	}
	return l
}

func mustAuthor(t *testing.T, s *Store, last, first string) *domain.Author {
	t.Helper()
	a := &domain.Author{LastName: last}
	if first != "" {
		a.FirstName = &first
	}
	if err := s.Authors().Create(context.Background(), a, "tester"); err != nil {
		t.Fatalf("create author: %v", err)
	}
	return a
}

func mustGenre(t *testing.T, s *Store, name string) *domain.Genre {
	t.Helper()
	g := &domain.Genre{Name: name}
	if err := s.Genres().Create(context.Background(), g, "tester"); err != nil {
		t.Fatalf("create genre: %v", err)
	}
	return g
}

func mustSeries(t *testing.T, s *Store, title string) *domain.Series {
	t.Helper()
	v := &domain.Series{Title: title}
	if err := s.Series().Create(context.Background(), v, "tester"); err != nil {
		t.Fatalf("create series: %v", err)
	}
	return v
}

func mustEbook(t *testing.T, s *Store, e *domain.Ebook) *domain.Ebook {
	t.Helper()
	if err := s.Ebooks().Create(context.Background(), e, "tester"); err != nil {
		t.Fatalf("create ebook: %v", err)
	}
	return e
}

func assertCode(t *testing.T, err error, want domainerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", want)
	}
	if got := domainerrors.CodeOf(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

func TestOpen(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("expected wal, got %s", journalMode)
	}

	var fk int
	if err := s.db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatalf("query foreign_keys: %v", err)
	}
	if fk != 1 {
		t.Errorf("expected foreign_keys=1, got %d", fk)
	}

	tables := []string{
		"languages", "series", "authors", "genres", "formats", "ebooks",
		"ebook_authors", "ebook_genres", "sources", "bookshelves", "bookshelf_items",
		"conversion_batches", "conversions", "ebook_ratings", "series_ratings",
	}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		if err != nil {
			t.Errorf("table %s not found: %v", table, err)
		}
	}

	if err := s.Ping(context.Background()); err != nil {
		t.Errorf("ping: %v", err)
	}
}

func TestOpenClose(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "test.db")

	s, err := Open(dbPath, Options{}, nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	l := &domain.Language{Code: "en", Name: "English"}
	if err := s.Languages().Create(context.Background(), l, ""); err != nil {
		t.Fatalf("create language: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	// Re-open should work (schema is idempotent) and keep the data.
	s2, err := Open(dbPath, Options{}, nil)
	if err != nil {
		t.Fatalf("re-open store: %v", err)
	}
	defer s2.Close()

	got, err := s2.Languages().Get(context.Background(), l.ID)
	if err != nil {
		t.Fatalf("get language after re-open: %v", err)
	}
	if got.Code != "en" || got.CreatedBy != "" {
		t.Errorf("unexpected language %+v", got)
	}
}

func TestDSN(t *testing.T) {
	got := dsn("/tmp/catalog.db", Options{BusyTimeout: 2500 * time.Millisecond})
	for _, want := range []string{"file:/tmp/catalog.db?", "busy_timeout%282500%29", "foreign_keys%281%29", "_txlock=immediate"} {
		if !strings.Contains(got, want) {
			t.Errorf("dsn %q lacks %q", got, want)
		}
	}
}
