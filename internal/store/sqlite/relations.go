package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"slices"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/store"
)

// link describes one many-to-many table hanging off ebooks.
type link struct {
	table  string
	column string
	kind   domain.Kind
	source string // Table holding the linked rows
}

var (
	authorLink = link{table: "ebook_authors", column: "author_id", kind: domain.KindAuthor, source: "authors"}
	genreLink  = link{table: "ebook_genres", column: "genre_id", kind: domain.KindGenre, source: "genres"}
)

// SetEbookAuthors replaces the ebook's authors with authorIDs.
func (s *Store) SetEbookAuthors(ctx context.Context, ebookID string, expected int64, authorIDs []string) (int64, error) {
	return s.setLinks(ctx, authorLink, ebookID, expected, authorIDs)
}

// SetEbookGenres replaces the ebook's genres with genreIDs.
func (s *Store) SetEbookGenres(ctx context.Context, ebookID string, expected int64, genreIDs []string) (int64, error) {
	return s.setLinks(ctx, genreLink, ebookID, expected, genreIDs)
}

// setLinks diffs the wanted ids against the stored ones and writes only the
// difference. The ebook version moves exactly once, even when nothing
// changed, so the caller's expected version is always consumed.
func (s *Store) setLinks(ctx context.Context, l link, ebookID string, expected int64, ids []string) (int64, error) {
	if dup := duplicate(ids); dup != "" {
		return 0, domainerrors.Validationf("%s %s listed twice", l.kind, dup)
	}

	at := now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if err := s.ebooks.checkVersion(ctx, tx, ebookID, expected); err != nil {
			return err
		}
		for _, v := range ids {
			if err := exists(ctx, tx, l.source, l.kind, v); err != nil {
				return err
			}
		}

		current, err := linkedIDs(ctx, tx, l, ebookID)
		if err != nil {
			return err
		}
		for _, v := range current {
			if slices.Contains(ids, v) {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM "+l.table+" WHERE ebook_id = ? AND "+l.column+" = ?", ebookID, v); err != nil {
				return classify(ctx, err, "unlink "+string(l.kind))
			}
		}
		var added []string
		for _, v := range ids {
			if !slices.Contains(current, v) {
				added = append(added, v)
			}
		}
		if err := insertLinks(ctx, tx, l.table, l.column, ebookID, added); err != nil {
			return err
		}

		return s.ebooks.bump(ctx, tx, ebookID, expected, at)
	})
	if err != nil {
		return 0, err
	}

	s.notify([]store.Change{{Kind: domain.KindEbook, ID: ebookID, Version: expected + 1, Op: store.OpUpsert, At: at}})
	return expected + 1, nil
}

// AuthorsOf returns the ebook's authors.
func (s *Store) AuthorsOf(ctx context.Context, ebookID string) ([]domain.AuthorRef, error) {
	if err := exists(ctx, s.db, "ebooks", domain.KindEbook, ebookID); err != nil {
		return nil, err
	}
	return authorsOf(ctx, s.db, ebookID)
}

// GenresOf returns the ebook's genres.
func (s *Store) GenresOf(ctx context.Context, ebookID string) ([]domain.GenreRef, error) {
	if err := exists(ctx, s.db, "ebooks", domain.KindEbook, ebookID); err != nil {
		return nil, err
	}
	return genresOf(ctx, s.db, ebookID)
}

// EbooksOfAuthor returns the ids of the author's ebooks.
func (s *Store) EbooksOfAuthor(ctx context.Context, authorID string) ([]string, error) {
	if err := exists(ctx, s.db, "authors", domain.KindAuthor, authorID); err != nil {
		return nil, err
	}
	return s.ebookIDs(ctx, "SELECT ebook_id FROM ebook_authors WHERE author_id = ? ORDER BY ebook_id", authorID)
}

// EbooksOfGenre returns the ids of the genre's ebooks.
func (s *Store) EbooksOfGenre(ctx context.Context, genreID string) ([]string, error) {
	if err := exists(ctx, s.db, "genres", domain.KindGenre, genreID); err != nil {
		return nil, err
	}
	return s.ebookIDs(ctx, "SELECT ebook_id FROM ebook_genres WHERE genre_id = ? ORDER BY ebook_id", genreID)
}

// EbooksOfSeries returns the ids of the series' ebooks in reading order.
func (s *Store) EbooksOfSeries(ctx context.Context, seriesID string) ([]string, error) {
	if err := exists(ctx, s.db, "series", domain.KindSeries, seriesID); err != nil {
		return nil, err
	}
	return s.ebookIDs(ctx, "SELECT id FROM ebooks WHERE series_id = ? ORDER BY series_index, id", seriesID)
}

func (s *Store) ebookIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify(ctx, err, "list ebooks")
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, classify(ctx, err, "scan ebook id")
		}
		ids = append(ids, v)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, err, "list ebooks")
	}
	return ids, nil
}

func linkedIDs(ctx context.Context, q querier, l link, ebookID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT "+l.column+" FROM "+l.table+" WHERE ebook_id = ?", ebookID)
	if err != nil {
		return nil, classify(ctx, err, "read "+l.table)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, classify(ctx, err, "scan "+l.table)
		}
		ids = append(ids, v)
	}
	return ids, rows.Err()
}

func exists(ctx context.Context, q querier, table string, kind domain.Kind, id string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(kind, id)
	}
	if err != nil {
		return classify(ctx, err, "lookup "+string(kind))
	}
	return nil
}

func duplicate(ids []string) string {
	seen := make(map[string]struct{}, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			return v
		}
		seen[v] = struct{}{}
	}
	return ""
}
