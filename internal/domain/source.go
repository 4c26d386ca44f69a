package domain

// Source is one stored file of an ebook in a given format.
type Source struct {
	Entity
	EbookID  string   `json:"ebook_id" validate:"required,ref=ebook"`
	FormatID string   `json:"format_id" validate:"required,ref=format"`
	Location string   `json:"location" validate:"notblank,max=1023"` // Relative to the library root
	Size     int64    `json:"size" validate:"gte=0"`
	Hash     string   `json:"hash" validate:"notblank,max=128"`
	Quality  *float64 `json:"quality,omitempty" validate:"omitnil,gte=0,lte=100"`
}

// SourcePatch updates a Source. The owning ebook cannot change.
type SourcePatch struct {
	FormatID *string  `json:"format_id,omitempty" validate:"omitnil,ref=format"`
	Location *string  `json:"location,omitempty" validate:"omitnil,notblank,max=1023"`
	Size     *int64   `json:"size,omitempty" validate:"omitnil,gte=0"`
	Hash     *string  `json:"hash,omitempty" validate:"omitnil,notblank,max=128"`
	Quality  *float64 `json:"quality,omitempty" validate:"omitnil,gte=0,lte=100"`
}

// Apply implements Patch.
func (p SourcePatch) Apply(s *Source) {
	setString(&s.FormatID, p.FormatID)
	setString(&s.Location, p.Location)
	if p.Size != nil {
		s.Size = *p.Size
	}
	setString(&s.Hash, p.Hash)
	if p.Quality != nil {
		q := *p.Quality
		s.Quality = &q
	}
}
