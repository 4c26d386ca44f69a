package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/mybookshelf/catalog/internal/errors"
)

func TestEntity_Init(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	var a Author
	a.Init("author-1", "alice", now)

	assert.Equal(t, "author-1", a.ID)
	assert.Equal(t, int64(1), a.Version)
	assert.Equal(t, now, a.Created)
	assert.Equal(t, now, a.Modified)
	assert.Equal(t, "alice", a.CreatedBy)
	assert.Same(t, &a.Entity, a.Meta())
}

func TestAuthorPatch_ClearsOptionalFields(t *testing.T) {
	a := Author{LastName: "Doe", FirstName: strPtr("Jane"), Description: strPtr("bio")}

	AuthorPatch{FirstName: strPtr("  "), LastName: strPtr(" Roe ")}.Apply(&a)

	assert.Equal(t, "Roe", a.LastName)
	assert.Nil(t, a.FirstName)
	assert.Equal(t, "bio", *a.Description)
	assert.Equal(t, "Roe", a.Name())
}

func TestEbookPatch_ClearingSeriesClearsIndex(t *testing.T) {
	e := Ebook{Title: "T", SeriesID: strPtr("series-1"), SeriesIndex: int64Ptr(2)}

	EbookPatch{SeriesID: strPtr("")}.Apply(&e)

	assert.Nil(t, e.SeriesID)
	assert.Nil(t, e.SeriesIndex)
	assert.NoError(t, e.Check())
}

func TestEbook_Check(t *testing.T) {
	tests := []struct {
		name    string
		ebook   Ebook
		wantErr bool
	}{
		{"no series", Ebook{}, false},
		{"series with index", Ebook{SeriesID: strPtr("series-1"), SeriesIndex: int64Ptr(1)}, false},
		{"series without index", Ebook{SeriesID: strPtr("series-1")}, true},
		{"index without series", Ebook{SeriesIndex: int64Ptr(1)}, true},
		{"duplicate author", Ebook{Authors: []AuthorRef{{ID: "author-1"}, {ID: "author-1"}}}, true},
		{"duplicate genre", Ebook{Genres: []GenreRef{{ID: "genre-1"}, {ID: "genre-1"}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.ebook.Check()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBookshelfItem_Check(t *testing.T) {
	tests := []struct {
		name    string
		item    BookshelfItem
		wantErr bool
	}{
		{"ebook", BookshelfItem{Type: ItemEbook, EbookID: strPtr("ebook-1")}, false},
		{"series", BookshelfItem{Type: ItemSeries, SeriesID: strPtr("series-1")}, false},
		{"both", BookshelfItem{Type: ItemEbook, EbookID: strPtr("ebook-1"), SeriesID: strPtr("series-1")}, true},
		{"neither", BookshelfItem{Type: ItemEbook}, true},
		{"type mismatch", BookshelfItem{Type: ItemSeries, EbookID: strPtr("ebook-1")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Check()
			if tt.wantErr {
				assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))
			} else {
				assert.NoError(t, err)
			}
		})
	}

	kind, target := (&BookshelfItem{SeriesID: strPtr("series-9")}).Target()
	assert.Equal(t, KindSeries, kind)
	assert.Equal(t, "series-9", target)
}
