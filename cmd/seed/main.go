// Package main provides a tool to seed the catalog with sample data.
//
// It creates a small set of languages, authors, series, genres, ebooks and
// one bookshelf through the catalog service, waits for the search index to
// catch up and prints a sample query.
//
// Usage:
//
//	DATA_PATH=~/catalog go run ./cmd/seed
//	DATA_PATH=~/catalog go run ./cmd/seed -query whale
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/mybookshelf/catalog/internal/domain"
	"github.com/mybookshelf/catalog/internal/indexsync"
	"github.com/mybookshelf/catalog/internal/logger"
	"github.com/mybookshelf/catalog/internal/metrics"
	"github.com/mybookshelf/catalog/internal/search"
	"github.com/mybookshelf/catalog/internal/service"
	"github.com/mybookshelf/catalog/internal/store/sqlite"
	"github.com/mybookshelf/catalog/internal/validation"
)

const actor = "seed"

var query = flag.String("query", "sea", "Search query to run after seeding")

type sampleBook struct {
	title  string
	author int
	series int // -1 for none
	index  int64
	genres []int
	desc   string
}

var (
	sampleAuthors = []struct{ first, last string }{
		{"Herman", "Melville"},
		{"Jules", "Verne"},
		{"Joseph", "Conrad"},
	}
	sampleSeries = []string{"Voyages Extraordinaires"}
	sampleGenres = []string{"Adventure", "Classics", "Science Fiction"}
	sampleBooks  = []sampleBook{
		{"Moby Dick", 0, -1, 0, []int{0, 1}, "<p>The <b>whale</b> and the captain.</p>"},
		{"Twenty Thousand Leagues Under the Sea", 1, 0, 1, []int{0, 2}, "A submarine voyage."},
		{"Journey to the Center of the Earth", 1, 0, 2, []int{0, 2}, ""},
		{"Heart of Darkness", 2, -1, 0, []int{1}, "A journey up the river."},
	}
)

func main() {
	flag.Parse()

	dataPath := os.Getenv("DATA_PATH")
	if dataPath == "" {
		dataPath = os.ExpandEnv("$HOME/catalog")
	}
	if err := os.MkdirAll(dataPath, 0o755); err != nil {
		log.Fatalf("Failed to create data path: %v", err)
	}

	fmt.Printf("Opening catalog at: %s\n", dataPath)

	cat, cleanup, err := open(dataPath)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer cleanup()

	ctx := context.Background()

	lang, _, err := cat.Languages().Create(ctx, &domain.Language{Code: "en", Name: "English"}, actor)
	if err != nil {
		log.Fatalf("Failed to create language: %v", err)
	}

	authorIDs := make([]string, len(sampleAuthors))
	for i, a := range sampleAuthors {
		first := a.first
		if authorIDs[i], _, err = cat.Authors().Create(ctx, &domain.Author{FirstName: &first, LastName: a.last}, actor); err != nil {
			log.Fatalf("Failed to create author %s: %v", a.last, err)
		}
	}

	seriesIDs := make([]string, len(sampleSeries))
	for i, title := range sampleSeries {
		if seriesIDs[i], _, err = cat.Series().Create(ctx, &domain.Series{Title: title}, actor); err != nil {
			log.Fatalf("Failed to create series %s: %v", title, err)
		}
	}

	genreIDs := make([]string, len(sampleGenres))
	for i, name := range sampleGenres {
		if genreIDs[i], _, err = cat.Genres().Create(ctx, &domain.Genre{Name: name}, actor); err != nil {
			log.Fatalf("Failed to create genre %s: %v", name, err)
		}
	}

	shelfID, shelfVersion, err := cat.Bookshelves().Create(ctx, &domain.Bookshelf{Name: "To read"}, actor)
	if err != nil {
		log.Fatalf("Failed to create bookshelf: %v", err)
	}

	for _, b := range sampleBooks {
		ebook := &domain.Ebook{
			Title:      b.title,
			LanguageID: lang,
			Authors:    []domain.AuthorRef{{ID: authorIDs[b.author]}},
		}
		if b.desc != "" {
			desc := b.desc
			ebook.Description = &desc
		}
		if b.series >= 0 {
			idx := b.index
			ebook.SeriesID = &seriesIDs[b.series]
			ebook.SeriesIndex = &idx
		}
		for _, g := range b.genres {
			ebook.Genres = append(ebook.Genres, domain.GenreRef{ID: genreIDs[g]})
		}

		ebookID, _, err := cat.Ebooks().Create(ctx, ebook, actor)
		if err != nil {
			log.Fatalf("Failed to create ebook %q: %v", b.title, err)
		}
		fmt.Printf("  Created %s (%s)\n", b.title, ebookID)

		if _, shelfVersion, err = cat.AddBookshelfItem(ctx, shelfID, shelfVersion, &domain.BookshelfItem{Type: domain.ItemEbook, EbookID: &ebookID}, actor); err != nil {
			log.Fatalf("Failed to shelve %q: %v", b.title, err)
		}
	}

	waitCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if err := cat.WaitIndexed(waitCtx); err != nil {
		log.Fatalf("Search index did not catch up: %v", err)
	}

	res, err := cat.Search(ctx, search.SearchParams{Query: *query, Limit: 10})
	if err != nil {
		log.Fatalf("Search failed: %v", err)
	}
	fmt.Printf("\nSearch %q: %d hits\n", *query, res.Total)
	for _, hit := range res.Hits {
		fmt.Printf("  %-7s %s  %s\n", hit.Kind, hit.ID, hit.Title)
	}
}

// open wires a catalog directly, without the diagnostics server.
func open(dataPath string) (*service.Catalog, func(), error) {
	lg := logger.New(logger.Config{Level: logger.ParseLevel("warn")})
	m := metrics.New(nil)

	st, err := sqlite.Open(filepath.Join(dataPath, "catalog.db"), sqlite.Options{}, lg.Logger)
	if err != nil {
		return nil, nil, err
	}
	index, _, err := search.Open(search.Options{DataPath: filepath.Join(dataPath, "search"), Logger: lg.Logger})
	if err != nil {
		st.Close()
		return nil, nil, err
	}
	journal, err := indexsync.OpenJournal(filepath.Join(dataPath, "sync-journal"), lg.Logger)
	if err != nil {
		index.Close()
		st.Close()
		return nil, nil, err
	}

	coord := indexsync.New(st, index, journal, indexsync.Options{}, m.Sync, lg.Logger)
	st.SetChangeNotifier(coord)
	if err := coord.Start(); err != nil {
		journal.Close()
		index.Close()
		st.Close()
		return nil, nil, err
	}

	cat := service.NewCatalog(st, index, coord, validation.New(), m.Store, service.Options{}, lg.Logger)
	cleanup := func() {
		coord.Stop()
		journal.Close()
		index.Close()
		st.Close()
	}
	return cat, cleanup, nil
}
