package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/mybookshelf/catalog/internal/domain"
)

const (
	ebookRatingAvg   = "(SELECT AVG(r.rating) FROM ebook_ratings r WHERE r.ebook_id = t.id)"
	ebookRatingCount = "(SELECT COUNT(*) FROM ebook_ratings r WHERE r.ebook_id = t.id)"
	ebookLanguage    = "(SELECT l.code FROM languages l WHERE l.id = t.language_id)"
	ebookSeries      = "(SELECT s.title FROM series s WHERE s.id = t.series_id)"
)

func newEbooks(s *Store) *Entity[domain.Ebook, *domain.Ebook] {
	return (&Entity[domain.Ebook, *domain.Ebook]{
		store:   s,
		kind:    domain.KindEbook,
		table:   "ebooks",
		columns: []string{"title", "description", "cover", "base_dir", "language_id", "series_id", "series_index"},
		derived: []string{ebookRatingAvg, ebookRatingCount, ebookLanguage, ebookSeries},
		values: func(e *domain.Ebook) []any {
			return []any{e.Title, e.Description, e.Cover, e.BaseDir, e.LanguageID, e.SeriesID, e.SeriesIndex}
		},
		fields: func(e *domain.Ebook) []any {
			return []any{
				&e.Title, &e.Description, &e.Cover, &e.BaseDir, &e.LanguageID, &e.SeriesID, &e.SeriesIndex,
				&e.Rating, &e.RatingCount, &e.LanguageCode, &e.SeriesTitle,
			}
		},
		filters: map[string]string{
			"series_id":   "t.series_id = ?",
			"language_id": "t.language_id = ?",
			"author_id":   "EXISTS (SELECT 1 FROM ebook_authors ea WHERE ea.ebook_id = t.id AND ea.author_id = ?)",
			"genre_id":    "EXISTS (SELECT 1 FROM ebook_genres eg WHERE eg.ebook_id = t.id AND eg.genre_id = ?)",
		},
		title:        "title",
		rating:       ebookRatingAvg,
		beforeInsert: prepareEbook,
		afterInsert:  linkEbook,
		load:         loadEbookRelations,
	}).build()
}

// prepareEbook resolves the references the base directory is built from and
// fills in the summaries. Missing references are NOT_FOUND.
func prepareEbook(ctx context.Context, tx *sql.Tx, e *domain.Ebook) error {
	err := tx.QueryRowContext(ctx, "SELECT code FROM languages WHERE id = ?", e.LanguageID).Scan(&e.LanguageCode)
	if errors.Is(err, sql.ErrNoRows) {
		return notFound(domain.KindLanguage, e.LanguageID)
	}
	if err != nil {
		return classify(ctx, err, "resolve language")
	}

	e.SeriesTitle = nil
	if e.SeriesID != nil {
		var title string
		err := tx.QueryRowContext(ctx, "SELECT title FROM series WHERE id = ?", *e.SeriesID).Scan(&title)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(domain.KindSeries, *e.SeriesID)
		}
		if err != nil {
			return classify(ctx, err, "resolve series")
		}
		e.SeriesTitle = &title
	}

	for i, ref := range e.Authors {
		a := domain.AuthorRef{ID: ref.ID}
		err := tx.QueryRowContext(ctx, "SELECT last_name, first_name FROM authors WHERE id = ?", ref.ID).
			Scan(&a.LastName, &a.FirstName)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(domain.KindAuthor, ref.ID)
		}
		if err != nil {
			return classify(ctx, err, "resolve author")
		}
		e.Authors[i] = a
	}
	for i, ref := range e.Genres {
		g := domain.GenreRef{ID: ref.ID}
		err := tx.QueryRowContext(ctx, "SELECT name FROM genres WHERE id = ?", ref.ID).Scan(&g.Name)
		if errors.Is(err, sql.ErrNoRows) {
			return notFound(domain.KindGenre, ref.ID)
		}
		if err != nil {
			return classify(ctx, err, "resolve genre")
		}
		e.Genres[i] = g
	}

	e.BaseDir = domain.EbookBaseDir(e.Title, e.Authors, e.LanguageCode, e.SeriesTitle, e.SeriesIndex)
	return nil
}

func linkEbook(ctx context.Context, tx *sql.Tx, e *domain.Ebook) error {
	if err := insertLinks(ctx, tx, "ebook_authors", "author_id", e.ID, domain.AuthorIDs(e.Authors)); err != nil {
		return err
	}
	return insertLinks(ctx, tx, "ebook_genres", "genre_id", e.ID, domain.GenreIDs(e.Genres))
}

func insertLinks(ctx context.Context, tx *sql.Tx, table, column, ebookID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO "+table+" (ebook_id, "+column+") VALUES (?, ?)")
	if err != nil {
		return classify(ctx, err, "prepare "+table)
	}
	defer stmt.Close()

	for _, v := range ids {
		if _, err := stmt.ExecContext(ctx, ebookID, v); err != nil {
			return classify(ctx, err, "link "+strings.TrimSuffix(column, "_id"))
		}
	}
	return nil
}

func loadEbookRelations(ctx context.Context, q querier, e *domain.Ebook) error {
	var err error
	if e.Authors, err = authorsOf(ctx, q, e.ID); err != nil {
		return err
	}
	e.Genres, err = genresOf(ctx, q, e.ID)
	return err
}

// authorsOf lists the ebook's authors by last then first name.
func authorsOf(ctx context.Context, q querier, ebookID string) ([]domain.AuthorRef, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT a.id, a.last_name, a.first_name
		FROM ebook_authors ea JOIN authors a ON a.id = ea.author_id
		WHERE ea.ebook_id = ?
		ORDER BY a.last_name COLLATE NOCASE, a.first_name COLLATE NOCASE, a.id`, ebookID)
	if err != nil {
		return nil, classify(ctx, err, "list ebook authors")
	}
	defer rows.Close()

	refs := []domain.AuthorRef{}
	for rows.Next() {
		var r domain.AuthorRef
		if err := rows.Scan(&r.ID, &r.LastName, &r.FirstName); err != nil {
			return nil, classify(ctx, err, "scan ebook author")
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, err, "list ebook authors")
	}
	return refs, nil
}

func genresOf(ctx context.Context, q querier, ebookID string) ([]domain.GenreRef, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT g.id, g.name
		FROM ebook_genres eg JOIN genres g ON g.id = eg.genre_id
		WHERE eg.ebook_id = ?
		ORDER BY g.name COLLATE NOCASE, g.id`, ebookID)
	if err != nil {
		return nil, classify(ctx, err, "list ebook genres")
	}
	defer rows.Close()

	refs := []domain.GenreRef{}
	for rows.Next() {
		var r domain.GenreRef
		if err := rows.Scan(&r.ID, &r.Name); err != nil {
			return nil, classify(ctx, err, "scan ebook genre")
		}
		refs = append(refs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, err, "list ebook genres")
	}
	return refs, nil
}
