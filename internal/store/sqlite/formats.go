package sqlite

import (
	"github.com/mybookshelf/catalog/internal/domain"
)

func newFormats(s *Store) *Entity[domain.Format, *domain.Format] {
	return (&Entity[domain.Format, *domain.Format]{
		store:   s,
		kind:    domain.KindFormat,
		table:   "formats",
		columns: []string{"name", "mime_type", "extension"},
		values: func(f *domain.Format) []any {
			return []any{f.Name, f.MimeType, f.Extension}
		},
		fields: func(f *domain.Format) []any {
			return []any{&f.Name, &f.MimeType, &f.Extension}
		},
		title: "name",
	}).build()
}
