package sqlite

import (
	"context"
	"sync"
	"testing"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/store"
)

func TestCreateAndGetEbook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := &recorder{}
	s.SetChangeNotifier(rec)

	en := mustLanguage(t, s, "en")
	doe := mustAuthor(t, s, "Doe", "John")
	roe := mustAuthor(t, s, "Roe", "Jane Ann")
	sea := mustGenre(t, s, "Sea")
	saga := mustSeries(t, s, "Saga")
	rec.take()

	e := mustEbook(t, s, &domain.Ebook{
		Title:       "Moby",
		LanguageID:  en.ID,
		SeriesID:    &saga.ID,
		SeriesIndex: ptr(int64(2)),
		Authors:     []domain.AuthorRef{{ID: roe.ID}, {ID: doe.ID}},
		Genres:      []domain.GenreRef{{ID: sea.ID}},
	})

	if e.Version != 1 {
		t.Errorf("Version: got %d, want 1", e.Version)
	}
	if e.CreatedBy != "tester" {
		t.Errorf("CreatedBy: got %q", e.CreatedBy)
	}
	if e.BaseDir != "Roe J A, Doe J/Saga/Saga 2 - Moby(en)" {
		t.Errorf("BaseDir: got %q", e.BaseDir)
	}

	got, err := s.Ebooks().Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.LanguageCode != "en" {
		t.Errorf("LanguageCode: got %q", got.LanguageCode)
	}
	if got.SeriesTitle == nil || *got.SeriesTitle != "Saga" {
		t.Errorf("SeriesTitle: got %v", got.SeriesTitle)
	}
	if len(got.Authors) != 2 || got.Authors[0].LastName != "Doe" || got.Authors[1].LastName != "Roe" {
		t.Errorf("Authors: got %+v", got.Authors)
	}
	if len(got.Genres) != 1 || got.Genres[0].Name != "Sea" {
		t.Errorf("Genres: got %+v", got.Genres)
	}
	if got.Rating != nil || got.RatingCount != 0 {
		t.Errorf("unrated ebook has rating %v/%d", got.Rating, got.RatingCount)
	}

	changes := rec.take()
	if len(changes) != 1 || changes[0].Kind != domain.KindEbook || changes[0].Version != 1 || changes[0].Op != store.OpUpsert {
		t.Errorf("unexpected changes %+v", changes)
	}
}

func TestCreateEbookMissingReferences(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	en := mustLanguage(t, s, "en")

	tests := []struct {
		name  string
		ebook *domain.Ebook
	}{
		{"language", &domain.Ebook{Title: "A", LanguageID: "language-missing"}},
		{"series", &domain.Ebook{Title: "A", LanguageID: en.ID, SeriesID: ptr("series-missing"), SeriesIndex: ptr(int64(1))}},
		{"author", &domain.Ebook{Title: "A", LanguageID: en.ID, Authors: []domain.AuthorRef{{ID: "author-missing"}}}},
		{"genre", &domain.Ebook{Title: "A", LanguageID: en.ID, Genres: []domain.GenreRef{{ID: "genre-missing"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := s.Ebooks().Create(ctx, tt.ebook, "tester")
			assertCode(t, err, domainerrors.CodeNotFound)
			if tt.ebook.ID != "" {
				t.Errorf("failed create left id %q", tt.ebook.ID)
			}
		})
	}

	page, err := s.Ebooks().List(ctx, store.ListParams{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 0 {
		t.Errorf("expected no ebooks, got %d", page.Total)
	}
}

func TestCreateEbookSeriesPair(t *testing.T) {
	s := newTestStore(t)
	en := mustLanguage(t, s, "en")
	saga := mustSeries(t, s, "Saga")

	err := s.Ebooks().Create(context.Background(), &domain.Ebook{Title: "A", LanguageID: en.ID, SeriesID: &saga.ID}, "")
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestUpdateEbook(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	en := mustLanguage(t, s, "en")
	e := mustEbook(t, s, &domain.Ebook{Title: "Moby", LanguageID: en.ID})
	baseDir := e.BaseDir

	v, err := s.Ebooks().Update(ctx, e.ID, 1, domain.EbookPatch{Title: ptr("Moby Dick"), Description: ptr("<p>Whale</p>")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if v != 2 {
		t.Errorf("version: got %d, want 2", v)
	}

	got, err := s.Ebooks().Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != "Moby Dick" || got.Description == nil || *got.Description != "<p>Whale</p>" {
		t.Errorf("unexpected ebook %+v", got)
	}
	if got.BaseDir != baseDir {
		t.Errorf("BaseDir changed to %q", got.BaseDir)
	}
	if got.Modified.Before(e.Modified) {
		t.Errorf("Modified went backwards")
	}
	if !got.Created.Equal(e.Created) {
		t.Errorf("Created changed")
	}

	// Stale version.
	_, err = s.Ebooks().Update(ctx, e.ID, 1, domain.EbookPatch{Title: ptr("Other")})
	assertCode(t, err, domainerrors.CodeConflict)

	// Unknown id.
	_, err = s.Ebooks().Update(ctx, "ebook-missing", 1, domain.EbookPatch{Title: ptr("Other")})
	assertCode(t, err, domainerrors.CodeNotFound)

	got, _ = s.Ebooks().Get(ctx, e.ID)
	if got.Version != 2 || got.Title != "Moby Dick" {
		t.Errorf("failed updates changed the row: %+v", got)
	}
}

func TestConcurrentUpdatesOneWinner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	en := mustLanguage(t, s, "en")
	e := mustEbook(t, s, &domain.Ebook{Title: "Moby", LanguageID: en.ID})

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = s.Ebooks().Update(ctx, e.ID, 1, domain.EbookPatch{Title: ptr("Writer")})
		}(i)
	}
	wg.Wait()

	var wins, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		case domainerrors.CodeOf(err) == domainerrors.CodeConflict:
			conflicts++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != writers-1 {
		t.Errorf("wins=%d conflicts=%d", wins, conflicts)
	}

	got, err := s.Ebooks().Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Version != 2 {
		t.Errorf("version: got %d, want 2", got.Version)
	}
}

func TestVersionsIncreaseByOne(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	a := mustAuthor(t, s, "Doe", "")

	for want := int64(2); want <= 5; want++ {
		v, err := s.Authors().Update(ctx, a.ID, want-1, domain.AuthorPatch{Description: ptr("rev")})
		if err != nil {
			t.Fatalf("Update %d: %v", want, err)
		}
		if v != want {
			t.Fatalf("version: got %d, want %d", v, want)
		}
	}
}

func TestDeleteEbookCascades(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	en := mustLanguage(t, s, "en")
	epub := &domain.Format{Name: "EPUB", MimeType: "application/epub+zip", Extension: "epub"}
	if err := s.Formats().Create(ctx, epub, ""); err != nil {
		t.Fatalf("create format: %v", err)
	}
	doe := mustAuthor(t, s, "Doe", "")
	e := mustEbook(t, s, &domain.Ebook{Title: "Moby", LanguageID: en.ID, Authors: []domain.AuthorRef{{ID: doe.ID}}})
	src := &domain.Source{EbookID: e.ID, FormatID: epub.ID, Location: "Doe/Moby(en)/moby.epub", Size: 10, Hash: "abc"}
	if err := s.Sources().Create(ctx, src, ""); err != nil {
		t.Fatalf("create source: %v", err)
	}
	rating := &domain.EbookRating{EbookID: e.ID, Rating: 7}
	if err := s.EbookRatings().Create(ctx, rating, ""); err != nil {
		t.Fatalf("create rating: %v", err)
	}

	assertCode(t, s.Ebooks().Delete(ctx, e.ID, 5), domainerrors.CodeConflict)
	if err := s.Ebooks().Delete(ctx, e.ID, 1); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	_, err := s.Ebooks().Get(ctx, e.ID)
	assertCode(t, err, domainerrors.CodeNotFound)
	_, err = s.Sources().Get(ctx, src.ID)
	assertCode(t, err, domainerrors.CodeNotFound)
	_, err = s.EbookRatings().Get(ctx, rating.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	ids, err := s.EbooksOfAuthor(ctx, doe.ID)
	if err != nil {
		t.Fatalf("EbooksOfAuthor: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("author still linked to %v", ids)
	}

	assertCode(t, s.Ebooks().Delete(ctx, e.ID, 1), domainerrors.CodeNotFound)
}

func TestDeleteIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	en := mustLanguage(t, s, "en")
	doe := mustAuthor(t, s, "Doe", "")
	e := mustEbook(t, s, &domain.Ebook{Title: "Moby", LanguageID: en.ID, Authors: []domain.AuthorRef{{ID: doe.ID}}})
	if err := s.EbookRatings().Create(ctx, &domain.EbookRating{EbookID: e.ID, Rating: 5}, ""); err != nil {
		t.Fatalf("create rating: %v", err)
	}

	// Fail the cascade half way through.
	if _, err := s.db.Exec(`CREATE TRIGGER fail_rating_delete BEFORE DELETE ON ebook_ratings
		BEGIN SELECT RAISE(ABORT, 'rating delete refused'); END`); err != nil {
		t.Fatalf("create trigger: %v", err)
	}

	if err := s.Ebooks().Delete(ctx, e.ID, 1); err == nil {
		t.Fatal("expected delete to fail")
	}

	got, err := s.Ebooks().Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("ebook gone after failed delete: %v", err)
	}
	if got.Version != 1 || len(got.Authors) != 1 || got.RatingCount != 1 {
		t.Errorf("partial delete: %+v", got)
	}
}

func TestDeleteReferencedLanguage(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	en := mustLanguage(t, s, "en")
	mustEbook(t, s, &domain.Ebook{Title: "Moby", LanguageID: en.ID})

	assertCode(t, s.Languages().Delete(ctx, en.ID, 1), domainerrors.CodeValidation)
	if _, err := s.Languages().Get(ctx, en.ID); err != nil {
		t.Errorf("language gone: %v", err)
	}
}

func TestDeleteSeriesDetachesEbooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := &recorder{}
	s.SetChangeNotifier(rec)

	en := mustLanguage(t, s, "en")
	saga := mustSeries(t, s, "Saga")
	e := mustEbook(t, s, &domain.Ebook{Title: "Moby", LanguageID: en.ID, SeriesID: &saga.ID, SeriesIndex: ptr(int64(1))})
	rec.take()

	if err := s.Series().Delete(ctx, saga.ID, 1); err != nil {
		t.Fatalf("Delete series: %v", err)
	}

	got, err := s.Ebooks().Get(ctx, e.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.SeriesID != nil || got.SeriesIndex != nil || got.SeriesTitle != nil {
		t.Errorf("ebook still in series: %+v", got)
	}
	if got.Version != 2 {
		t.Errorf("version: got %d, want 2", got.Version)
	}

	if !rec.has(domain.KindSeries, saga.ID, store.OpDelete) {
		t.Error("series delete not notified")
	}
	if !rec.has(domain.KindEbook, e.ID, store.OpUpsert) {
		t.Error("detached ebook not notified")
	}
}

func TestRenameAuthorNotifiesEbooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	rec := &recorder{}
	s.SetChangeNotifier(rec)

	en := mustLanguage(t, s, "en")
	doe := mustAuthor(t, s, "Doe", "")
	e := mustEbook(t, s, &domain.Ebook{Title: "Moby", LanguageID: en.ID, Authors: []domain.AuthorRef{{ID: doe.ID}}})
	rec.take()

	if _, err := s.Authors().Update(ctx, doe.ID, 1, domain.AuthorPatch{LastName: ptr("Smith")}); err != nil {
		t.Fatalf("Update author: %v", err)
	}
	if !rec.has(domain.KindAuthor, doe.ID, store.OpUpsert) || !rec.has(domain.KindEbook, e.ID, store.OpUpsert) {
		t.Errorf("missing changes: %+v", rec.take())
	}

	// The ebook itself did not change.
	got, _ := s.Ebooks().Get(ctx, e.ID)
	if got.Version != 1 || got.Authors[0].LastName != "Smith" {
		t.Errorf("unexpected ebook %+v", got)
	}

	rec.take()
	if err := s.Authors().Delete(ctx, doe.ID, 2); err != nil {
		t.Fatalf("Delete author: %v", err)
	}
	if !rec.has(domain.KindEbook, e.ID, store.OpUpsert) {
		t.Error("ebook of deleted author not notified")
	}
	got, _ = s.Ebooks().Get(ctx, e.ID)
	if len(got.Authors) != 0 {
		t.Errorf("authors after delete: %+v", got.Authors)
	}
}

func TestUniqueConstraint(t *testing.T) {
	s := newTestStore(t)
	mustGenre(t, s, "Sea")

	err := s.Genres().Create(context.Background(), &domain.Genre{Name: "Sea"}, "")
	assertCode(t, err, domainerrors.CodeUniqueConstraint)
}

func TestRatingAggregates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	en := mustLanguage(t, s, "en")
	saga := mustSeries(t, s, "Saga")
	e := mustEbook(t, s, &domain.Ebook{Title: "Moby", LanguageID: en.ID})

	for _, r := range []float64{4, 8} {
		if err := s.EbookRatings().Create(ctx, &domain.EbookRating{EbookID: e.ID, Rating: r}, ""); err != nil {
			t.Fatalf("create ebook rating: %v", err)
		}
		if err := s.SeriesRatings().Create(ctx, &domain.SeriesRating{SeriesID: saga.ID, Rating: r + 1}, ""); err != nil {
			t.Fatalf("create series rating: %v", err)
		}
	}

	got, _ := s.Ebooks().Get(ctx, e.ID)
	if got.Rating == nil || *got.Rating != 6 || got.RatingCount != 2 {
		t.Errorf("ebook rating: %v/%d", got.Rating, got.RatingCount)
	}
	gs, _ := s.Series().Get(ctx, saga.ID)
	if gs.Rating == nil || *gs.Rating != 7 || gs.RatingCount != 2 {
		t.Errorf("series rating: %v/%d", gs.Rating, gs.RatingCount)
	}

	err := s.EbookRatings().Create(ctx, &domain.EbookRating{EbookID: e.ID, Rating: 11}, "")
	assertCode(t, err, domainerrors.CodeValidation)
}

func TestListEbooks(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	en := mustLanguage(t, s, "en")
	cs := mustLanguage(t, s, "cs")
	doe := mustAuthor(t, s, "Doe", "")
	sea := mustGenre(t, s, "Sea")

	a := mustEbook(t, s, &domain.Ebook{Title: "beta", LanguageID: en.ID, Authors: []domain.AuthorRef{{ID: doe.ID}}})
	b := mustEbook(t, s, &domain.Ebook{Title: "Alpha", LanguageID: cs.ID, Genres: []domain.GenreRef{{ID: sea.ID}}})
	c := mustEbook(t, s, &domain.Ebook{Title: "Gamma", LanguageID: en.ID})
	if err := s.EbookRatings().Create(ctx, &domain.EbookRating{EbookID: c.ID, Rating: 9}, ""); err != nil {
		t.Fatal(err)
	}
	if err := s.EbookRatings().Create(ctx, &domain.EbookRating{EbookID: a.ID, Rating: 3}, ""); err != nil {
		t.Fatal(err)
	}

	ids := func(p *store.Page[domain.Ebook]) []string {
		out := make([]string, len(p.Items))
		for i, e := range p.Items {
			out[i] = e.ID
		}
		return out
	}
	equal := func(got, want []string) bool {
		if len(got) != len(want) {
			return false
		}
		for i := range got {
			if got[i] != want[i] {
				return false
			}
		}
		return true
	}

	tests := []struct {
		name   string
		params store.ListParams
		want   []string
	}{
		{"by title", store.ListParams{Sort: store.SortTitle}, []string{b.ID, a.ID, c.ID}},
		{"by rating", store.ListParams{Sort: store.SortRating}, []string{c.ID, a.ID, b.ID}},
		{"by language", store.ListParams{Sort: store.SortTitle, Filter: map[string]string{"language_id": en.ID}}, []string{a.ID, c.ID}},
		{"by author", store.ListParams{Filter: map[string]string{"author_id": doe.ID}}, []string{a.ID}},
		{"by genre", store.ListParams{Filter: map[string]string{"genre_id": sea.ID}}, []string{b.ID}},
		{"paged", store.ListParams{Sort: store.SortTitle, Limit: 1, Offset: 1}, []string{a.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := s.Ebooks().List(ctx, tt.params)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if got := ids(page); !equal(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}

	page, err := s.Ebooks().List(ctx, store.ListParams{Limit: 2})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 3 || !page.HasMore() {
		t.Errorf("total=%d hasMore=%v", page.Total, page.HasMore())
	}

	_, err = s.Ebooks().List(ctx, store.ListParams{Filter: map[string]string{"title": "x"}})
	assertCode(t, err, domainerrors.CodeValidation)
	_, err = s.Languages().List(ctx, store.ListParams{Sort: store.SortRating})
	assertCode(t, err, domainerrors.CodeValidation)
}
