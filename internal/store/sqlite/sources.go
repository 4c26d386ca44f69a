package sqlite

import "github.com/mybookshelf/catalog/internal/domain"

func newSources(s *Store) *Entity[domain.Source, *domain.Source] {
	return (&Entity[domain.Source, *domain.Source]{
		store:   s,
		kind:    domain.KindSource,
		table:   "sources",
		columns: []string{"ebook_id", "format_id", "location", "size", "hash", "quality"},
		values: func(v *domain.Source) []any {
			return []any{v.EbookID, v.FormatID, v.Location, v.Size, v.Hash, v.Quality}
		},
		fields: func(v *domain.Source) []any {
			return []any{&v.EbookID, &v.FormatID, &v.Location, &v.Size, &v.Hash, &v.Quality}
		},
		filters: map[string]string{
			"ebook_id":  "t.ebook_id = ?",
			"format_id": "t.format_id = ?",
		},
		title:  "location",
		rating: "t.quality",
	}).build()
}
