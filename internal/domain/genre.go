package domain

// Genre classifies ebooks. Names are unique.
type Genre struct {
	Entity
	Name string `json:"name" validate:"notblank,max=255"`
}

// GenreRef is the genre summary embedded in an Ebook.
type GenreRef struct {
	ID   string `json:"id" validate:"required,ref=genre"`
	Name string `json:"name,omitempty" validate:"-"`
}

// GenrePatch updates a Genre.
type GenrePatch struct {
	Name *string `json:"name,omitempty" validate:"omitnil,notblank,max=255"`
}

// Apply implements Patch.
func (p GenrePatch) Apply(g *Genre) {
	setString(&g.Name, p.Name)
}
