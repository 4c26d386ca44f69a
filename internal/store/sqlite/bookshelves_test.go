package sqlite

import (
	"context"
	"testing"

	"github.com/mybookshelf/catalog/internal/domain"
	domainerrors "github.com/mybookshelf/catalog/internal/errors"
	"github.com/mybookshelf/catalog/internal/store"
)

func TestBookshelfItems(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	en := mustLanguage(t, s, "en")
	saga := mustSeries(t, s, "Saga")
	e := mustEbook(t, s, &domain.Ebook{Title: "Moby", LanguageID: en.ID})

	shelf := &domain.Bookshelf{Name: "Favourites"}
	if err := s.Bookshelves().Create(ctx, shelf, "reader"); err != nil {
		t.Fatalf("create bookshelf: %v", err)
	}

	first := &domain.BookshelfItem{Type: domain.ItemEbook, EbookID: &e.ID}
	v, err := s.AddBookshelfItem(ctx, shelf.ID, 1, first, "reader")
	if err != nil {
		t.Fatalf("AddBookshelfItem: %v", err)
	}
	if v != 2 || first.Order != 1 || first.Version != 1 || first.BookshelfID != shelf.ID {
		t.Errorf("v=%d item=%+v", v, first)
	}

	second := &domain.BookshelfItem{Type: domain.ItemSeries, SeriesID: &saga.ID, Note: ptr("later")}
	if v, err = s.AddBookshelfItem(ctx, shelf.ID, 2, second, "reader"); err != nil {
		t.Fatalf("AddBookshelfItem: %v", err)
	}
	if v != 3 || second.Order != 2 {
		t.Errorf("v=%d order=%d", v, second.Order)
	}

	// Same ebook twice.
	_, err = s.AddBookshelfItem(ctx, shelf.ID, 3, &domain.BookshelfItem{Type: domain.ItemEbook, EbookID: &e.ID}, "")
	assertCode(t, err, domainerrors.CodeUniqueConstraint)

	// Both or neither target.
	_, err = s.AddBookshelfItem(ctx, shelf.ID, 3, &domain.BookshelfItem{Type: domain.ItemEbook, EbookID: &e.ID, SeriesID: &saga.ID}, "")
	assertCode(t, err, domainerrors.CodeValidation)
	_, err = s.AddBookshelfItem(ctx, shelf.ID, 3, &domain.BookshelfItem{Type: domain.ItemEbook}, "")
	assertCode(t, err, domainerrors.CodeValidation)

	// Missing target.
	_, err = s.AddBookshelfItem(ctx, shelf.ID, 3, &domain.BookshelfItem{Type: domain.ItemEbook, EbookID: ptr("ebook-missing")}, "")
	assertCode(t, err, domainerrors.CodeNotFound)

	// Stale shelf version.
	_, err = s.AddBookshelfItem(ctx, shelf.ID, 1, &domain.BookshelfItem{Type: domain.ItemSeries, SeriesID: &saga.ID}, "")
	assertCode(t, err, domainerrors.CodeConflict)

	iv, err := s.UpdateBookshelfItem(ctx, second.ID, 1, domain.BookshelfItemPatch{Order: ptr(int64(0))})
	if err != nil || iv != 2 {
		t.Fatalf("UpdateBookshelfItem: v=%d err=%v", iv, err)
	}

	page, err := s.ListBookshelfItems(ctx, store.ListParams{Sort: store.SortTitle, Filter: map[string]string{"bookshelf_id": shelf.ID}})
	if err != nil {
		t.Fatalf("ListBookshelfItems: %v", err)
	}
	if page.Total != 2 || page.Items[0].ID != second.ID || page.Items[1].ID != first.ID {
		t.Errorf("unexpected order: %+v", page.Items)
	}

	got, _ := s.Bookshelves().Get(ctx, shelf.ID)
	if got.Version != 3 {
		t.Errorf("item update moved shelf version to %d", got.Version)
	}

	if v, err = s.RemoveBookshelfItem(ctx, shelf.ID, 3, first.ID); err != nil || v != 4 {
		t.Fatalf("RemoveBookshelfItem: v=%d err=%v", v, err)
	}
	_, err = s.GetBookshelfItem(ctx, first.ID)
	assertCode(t, err, domainerrors.CodeNotFound)
	_, err = s.RemoveBookshelfItem(ctx, shelf.ID, 4, first.ID)
	assertCode(t, err, domainerrors.CodeNotFound)

	// Deleting the series takes its item off the shelf.
	if err := s.Series().Delete(ctx, saga.ID, 1); err != nil {
		t.Fatalf("delete series: %v", err)
	}
	_, err = s.GetBookshelfItem(ctx, second.ID)
	assertCode(t, err, domainerrors.CodeNotFound)
}

func TestListBookshelvesByOwner(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, owner := range []string{"ann", "bob", "ann"} {
		if err := s.Bookshelves().Create(ctx, &domain.Bookshelf{Name: "Shelf of " + owner}, owner); err != nil {
			t.Fatalf("create bookshelf: %v", err)
		}
	}

	page, err := s.Bookshelves().List(ctx, store.ListParams{Filter: map[string]string{"created_by": "ann"}})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Total != 2 {
		t.Errorf("total: got %d, want 2", page.Total)
	}
}

func TestListBookshelvesByPublic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	for _, public := range []bool{true, false, true} {
		if err := s.Bookshelves().Create(ctx, &domain.Bookshelf{Name: "Shelf", Public: public}, "ann"); err != nil {
			t.Fatalf("create bookshelf: %v", err)
		}
	}

	for value, want := range map[string]int{"true": 2, "1": 2, "false": 1, "0": 1} {
		page, err := s.Bookshelves().List(ctx, store.ListParams{Filter: map[string]string{"public": value}})
		if err != nil {
			t.Fatalf("List public=%s: %v", value, err)
		}
		if page.Total != want {
			t.Errorf("public=%s: got %d, want %d", value, page.Total, want)
		}
	}

	_, err := s.Bookshelves().List(ctx, store.ListParams{Filter: map[string]string{"public": "maybe"}})
	assertCode(t, err, domainerrors.CodeValidation)
}
