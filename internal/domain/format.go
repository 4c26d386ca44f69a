package domain

// Format is an ebook file format. Extensions are unique.
type Format struct {
	Entity
	Name      string `json:"name" validate:"notblank,max=255"`
	MimeType  string `json:"mime_type" validate:"notblank,max=255"`
	Extension string `json:"extension" validate:"notblank,max=32"` // Without the leading dot: "epub"
}

// FormatPatch updates a Format.
type FormatPatch struct {
	Name      *string `json:"name,omitempty" validate:"omitnil,notblank,max=255"`
	MimeType  *string `json:"mime_type,omitempty" validate:"omitnil,notblank,max=255"`
	Extension *string `json:"extension,omitempty" validate:"omitnil,notblank,max=32"`
}

// Apply implements Patch.
func (p FormatPatch) Apply(f *Format) {
	setString(&f.Name, p.Name)
	setString(&f.MimeType, p.MimeType)
	setString(&f.Extension, p.Extension)
}
