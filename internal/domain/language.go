package domain

// Language is a book language identified by a unique code ("en", "cs").
type Language struct {
	Entity
	Code string `json:"code" validate:"notblank,max=16"`
	Name string `json:"name" validate:"notblank,max=255"`
}

// LanguagePatch updates a Language.
type LanguagePatch struct {
	Code *string `json:"code,omitempty" validate:"omitnil,notblank,max=16"`
	Name *string `json:"name,omitempty" validate:"omitnil,notblank,max=255"`
}

// Apply implements Patch.
func (p LanguagePatch) Apply(l *Language) {
	setString(&l.Code, p.Code)
	setString(&l.Name, p.Name)
}
