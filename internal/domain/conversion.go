package domain

// ConversionBatch groups conversions of many sources to one format, for
// example every ebook of a series or a bookshelf.
type ConversionBatch struct {
	Entity
	Name      string  `json:"name" validate:"notblank,max=255"`
	FormatID  string  `json:"format_id" validate:"required,ref=format"`
	ForKind   *Kind   `json:"for_kind,omitempty" validate:"omitnil,oneof=ebook series bookshelf"`
	ForEntity *string `json:"for_entity,omitempty" validate:"omitempty,max=64"`
}

// ConversionBatchPatch renames a batch.
type ConversionBatchPatch struct {
	Name *string `json:"name,omitempty" validate:"omitnil,notblank,max=255"`
}

// Apply implements Patch.
func (p ConversionBatchPatch) Apply(b *ConversionBatch) {
	setString(&b.Name, p.Name)
}

// Conversion is the result of converting one source to another format.
type Conversion struct {
	Entity
	SourceID string  `json:"source_id" validate:"required,ref=source"`
	FormatID string  `json:"format_id" validate:"required,ref=format"`
	BatchID  *string `json:"batch_id,omitempty" validate:"omitempty,ref=conversion_batch"`
	Location string  `json:"location" validate:"notblank,max=1023"`
}

// ConversionPatch moves a conversion result.
type ConversionPatch struct {
	Location *string `json:"location,omitempty" validate:"omitnil,notblank,max=1023"`
}

// Apply implements Patch.
func (p ConversionPatch) Apply(c *Conversion) {
	setString(&c.Location, p.Location)
}
