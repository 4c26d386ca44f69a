package domain

import "strings"

// Author writes ebooks. Only the last name is required.
type Author struct {
	Entity
	LastName    string  `json:"last_name" validate:"notblank,max=255"`
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
}

// Name returns "First Last", or just the last name.
func (a *Author) Name() string {
	return displayName(a.FirstName, a.LastName)
}

// AuthorRef is the author summary embedded in an Ebook.
type AuthorRef struct {
	ID        string  `json:"id" validate:"required,ref=author"`
	LastName  string  `json:"last_name,omitempty" validate:"-"`
	FirstName *string `json:"first_name,omitempty" validate:"-"`
}

// Name returns "First Last", or just the last name.
func (a AuthorRef) Name() string {
	return displayName(a.FirstName, a.LastName)
}

// AuthorPatch updates an Author. Blank optional values clear the field.
type AuthorPatch struct {
	LastName    *string `json:"last_name,omitempty" validate:"omitnil,notblank,max=255"`
	FirstName   *string `json:"first_name,omitempty" validate:"omitempty,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=10000"`
}

// Apply implements Patch.
func (p AuthorPatch) Apply(a *Author) {
	setString(&a.LastName, p.LastName)
	setOptional(&a.FirstName, p.FirstName)
	setOptional(&a.Description, p.Description)
}

func displayName(first *string, last string) string {
	if first == nil || strings.TrimSpace(*first) == "" {
		return last
	}
	return *first + " " + last
}
