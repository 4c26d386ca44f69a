package sqlite

import "github.com/mybookshelf/catalog/internal/domain"

func newConversionBatches(s *Store) *Entity[domain.ConversionBatch, *domain.ConversionBatch] {
	return (&Entity[domain.ConversionBatch, *domain.ConversionBatch]{
		store:   s,
		kind:    domain.KindConversionBatch,
		table:   "conversion_batches",
		columns: []string{"name", "format_id", "for_kind", "for_entity"},
		values: func(b *domain.ConversionBatch) []any {
			return []any{b.Name, b.FormatID, b.ForKind, b.ForEntity}
		},
		fields: func(b *domain.ConversionBatch) []any {
			return []any{&b.Name, &b.FormatID, &b.ForKind, &b.ForEntity}
		},
		filters: map[string]string{
			"format_id":  "t.format_id = ?",
			"created_by": "t.created_by = ?",
		},
		title: "name",
	}).build()
}

func newConversions(s *Store) *Entity[domain.Conversion, *domain.Conversion] {
	return (&Entity[domain.Conversion, *domain.Conversion]{
		store:   s,
		kind:    domain.KindConversion,
		table:   "conversions",
		columns: []string{"source_id", "format_id", "batch_id", "location"},
		values: func(c *domain.Conversion) []any {
			return []any{c.SourceID, c.FormatID, c.BatchID, c.Location}
		},
		fields: func(c *domain.Conversion) []any {
			return []any{&c.SourceID, &c.FormatID, &c.BatchID, &c.Location}
		},
		filters: map[string]string{
			"source_id": "t.source_id = ?",
			"batch_id":  "t.batch_id = ?",
			"format_id": "t.format_id = ?",
		},
		title: "location",
	}).build()
}
