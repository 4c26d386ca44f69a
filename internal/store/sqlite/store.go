package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/store"
)

//go:embed schema.sql
var schemaSQL string

// timeLayout is fixed width so stored timestamps order lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// Options configures Open.
type Options struct {
	BusyTimeout time.Duration // How long a writer waits for the lock before SQLITE_BUSY
}

// Store provides SQLite-backed persistence for the catalog.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu       sync.RWMutex
	notifier store.ChangeNotifier

	languages         *Entity[domain.Language, *domain.Language]
	series            *Entity[domain.Series, *domain.Series]
	authors           *Entity[domain.Author, *domain.Author]
	ebooks            *Entity[domain.Ebook, *domain.Ebook]
	genres            *Entity[domain.Genre, *domain.Genre]
	formats           *Entity[domain.Format, *domain.Format]
	sources           *Entity[domain.Source, *domain.Source]
	bookshelves       *Entity[domain.Bookshelf, *domain.Bookshelf]
	items             *Entity[domain.BookshelfItem, *domain.BookshelfItem]
	conversionBatches *Entity[domain.ConversionBatch, *domain.ConversionBatch]
	conversions       *Entity[domain.Conversion, *domain.Conversion]
	ebookRatings      *Entity[domain.EbookRating, *domain.EbookRating]
	seriesRatings     *Entity[domain.SeriesRating, *domain.SeriesRating]
}

var _ store.Store = (*Store)(nil)

// Open creates or opens the catalog database at path and applies the schema.
//
// Pragmas are passed in the DSN so every pooled connection gets them, and
// transactions start with BEGIN IMMEDIATE so the version check and the write
// happen under the same write lock.
func Open(path string, opts Options, logger *slog.Logger) (*Store, error) {
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	db, err := sql.Open("sqlite", dsn(path, opts))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	s := &Store{
		db:       db,
		logger:   logger,
		notifier: store.NoopNotifier{},
	}
	s.languages = newLanguages(s)
	s.series = newSeries(s)
	s.authors = newAuthors(s)
	s.ebooks = newEbooks(s)
	s.genres = newGenres(s)
	s.formats = newFormats(s)
	s.sources = newSources(s)
	s.bookshelves = newBookshelves(s)
	s.items = newBookshelfItems(s)
	s.conversionBatches = newConversionBatches(s)
	s.conversions = newConversions(s)
	s.ebookRatings = newEbookRatings(s)
	s.seriesRatings = newSeriesRatings(s)

	return s, nil
}

func dsn(path string, opts Options) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", opts.BusyTimeout.Milliseconds()))
	q.Set("_txlock", "immediate")
	return "file:" + path + "?" + q.Encode()
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database answers.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return classify(ctx, err, "ping database")
	}
	return nil
}

// SetChangeNotifier sets the receiver of committed changes.
func (s *Store) SetChangeNotifier(n store.ChangeNotifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n == nil {
		n = store.NoopNotifier{}
	}
	s.notifier = n
}

func (s *Store) notify(changes []store.Change) {
	if len(changes) == 0 {
		return
	}
	s.mu.RLock()
	n := s.notifier
	s.mu.RUnlock()
	n.Notify(changes)
}

// Languages returns the Language repository.
func (s *Store) Languages() store.Repository[domain.Language] {
	return s.languages
}

// Series returns the Series repository.
func (s *Store) Series() store.Repository[domain.Series] {
	return s.series
}

// Authors returns the Author repository.
func (s *Store) Authors() store.Repository[domain.Author] {
	return s.authors
}

// Ebooks returns the Ebook repository.
func (s *Store) Ebooks() store.Repository[domain.Ebook] {
	return s.ebooks
}

// Genres returns the Genre repository.
func (s *Store) Genres() store.Repository[domain.Genre] {
	return s.genres
}

// Formats returns the Format repository.
func (s *Store) Formats() store.Repository[domain.Format] {
	return s.formats
}

// Sources returns the Source repository.
func (s *Store) Sources() store.Repository[domain.Source] {
	return s.sources
}

// Bookshelves returns the Bookshelf repository.
func (s *Store) Bookshelves() store.Repository[domain.Bookshelf] {
	return s.bookshelves
}

// ConversionBatches returns the ConversionBatch repository.
func (s *Store) ConversionBatches() store.Repository[domain.ConversionBatch] {
	return s.conversionBatches
}

// Conversions returns the Conversion repository.
func (s *Store) Conversions() store.Repository[domain.Conversion] {
	return s.conversions
}

// EbookRatings returns the EbookRating repository.
func (s *Store) EbookRatings() store.Repository[domain.EbookRating] {
	return s.ebookRatings
}

// SeriesRatings returns the SeriesRating repository.
func (s *Store) SeriesRatings() store.Repository[domain.SeriesRating] {
	return s.seriesRatings
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// withTx runs fn in an immediate transaction and commits when fn succeeds.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return classify(ctx, err, "begin transaction")
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return classify(ctx, err, "commit")
	}
	return nil
}

// classify maps driver and context errors onto domain error codes.
// Foreign key failures mean a referenced row is missing.
func classify(ctx context.Context, err error, op string) error {
	return classifyAs(ctx, err, op, domainerrors.CodeNotFound, "referenced entity does not exist")
}

// classifyDelete is classify for deletes, where a foreign key failure means
// the row is still referenced by a restricting table.
func classifyDelete(ctx context.Context, err error, op string) error {
	return classifyAs(ctx, err, op, domainerrors.CodeValidation, "entity is still referenced")
}

func classifyAs(ctx context.Context, err error, op string, fkCode domainerrors.Code, fkMsg string) error {
	if err == nil {
		return nil
	}
	var de *domainerrors.Error
	if errors.As(err, &de) {
		return err
	}
	if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return domainerrors.Timeout(err, op)
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return domainerrors.StorageUnavailable(err, op)
		case sqlite3.SQLITE_INTERRUPT:
			return domainerrors.Timeout(err, op)
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"), strings.Contains(msg, "PRIMARY KEY constraint failed"):
		return domainerrors.Wrapf(err, domainerrors.CodeUniqueConstraint, "%s: %s", op, constraintColumns(msg))
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return domainerrors.Wrapf(err, fkCode, "%s: %s", op, fkMsg)
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return domainerrors.Wrapf(err, domainerrors.CodeValidation, "%s: constraint violated", op)
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "SQLITE_BUSY"):
		return domainerrors.StorageUnavailable(err, op)
	}
	return domainerrors.Wrap(err, domainerrors.CodeInternal, op)
}

// constraintColumns extracts "table.column" from a SQLite constraint message.
func constraintColumns(msg string) string {
	_, cols, ok := strings.Cut(msg, "constraint failed: ")
	if !ok {
		return "duplicate value"
	}
	if i := strings.Index(cols, " ("); i >= 0 {
		cols = cols[:i]
	}
	return "duplicate " + cols
}

// conflict reports a stale expected version. A negative current means the
// guarded write matched no row.
func conflict(kind domain.Kind, id string, expected, current int64) error {
	if current < 0 {
		return domainerrors.Conflictf("%s %s: version %d is no longer current", kind, id, expected).
			WithDetails(map[string]int64{"expected": expected})
	}
	return domainerrors.Conflictf("%s %s: expected version %d, current version is %d", kind, id, expected, current).
		WithDetails(map[string]int64{"expected": expected, "current": current})
}

func notFound(kind domain.Kind, id string) error {
	return domainerrors.NotFoundf("%s %s not found", kind, id)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

func now() time.Time {
	return time.Now().UTC()
}
