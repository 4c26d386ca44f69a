package domain

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Letters that do not decompose into ASCII plus combining marks.
var transliterations = map[rune]string{
	'Æ': "AE", 'æ': "ae",
	'Ð': "D", 'ð': "d",
	'Ø': "O", 'ø': "o",
	'Þ': "Th", 'þ': "th",
	'ß': "s",
	'Đ': "D", 'đ': "d",
	'Ħ': "H", 'ħ': "h",
	'ı': "i",
	'ĸ': "k",
	'Ł': "L", 'ł': "l",
	'Ŋ': "N", 'ŋ': "n",
	'Œ': "Oe", 'œ': "oe",
	'Ŧ': "T", 'ŧ': "t",
}

const unsafePathChars = `:*%|"<>?\`

// EbookBaseDir derives the directory, relative to the library root, that
// holds an ebook's files:
//
//	Author/Series/Series N - Title(lang)   when the ebook is in a series
//	Author/Title(lang)                     otherwise
//
// The result is ASCII only.
func EbookBaseDir(title string, authors []AuthorRef, languageCode string, seriesTitle *string, seriesIndex *int64) string {
	author := pathSegment(authorsLabel(authors))
	title = pathSegment(title)

	var dir string
	if seriesTitle != nil {
		series := pathSegment(*seriesTitle)
		var idx int64
		if seriesIndex != nil {
			idx = *seriesIndex
		}
		dir = fmt.Sprintf("%s/%s/%s %d - %s(%s)", author, series, series, idx, title, languageCode)
	} else {
		dir = fmt.Sprintf("%s/%s(%s)", author, title, languageCode)
	}

	dir = asciiFold(dir)
	return strings.Map(func(r rune) rune {
		if strings.ContainsRune(unsafePathChars, r) {
			return -1
		}
		return r
	}, dir)
}

// authorsLabel renders "Last First" for a single author and
// "Last F, Last F" for up to three, then " and others".
func authorsLabel(authors []AuthorRef) string {
	switch len(authors) {
	case 0:
		return "No Authors"
	case 1:
		a := authors[0]
		if a.FirstName != nil && *a.FirstName != "" {
			return a.LastName + " " + *a.FirstName
		}
		return a.LastName
	}

	parts := make([]string, 0, 3)
	for _, a := range authors[:min(3, len(authors))] {
		if a.FirstName != nil && *a.FirstName != "" {
			parts = append(parts, a.LastName+" "+initials(*a.FirstName))
		} else {
			parts = append(parts, a.LastName)
		}
	}
	label := strings.Join(parts, ", ")
	if len(authors) > 3 {
		label += " and others"
	}
	return label
}

func initials(name string) string {
	fields := strings.Fields(name)
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		r := []rune(f)[0]
		out = append(out, strings.ToUpper(string(r)))
	}
	return strings.Join(out, " ")
}

func pathSegment(s string) string {
	return strings.ReplaceAll(s, "/", "-")
}

// asciiFold strips combining marks after compatibility decomposition,
// transliterates the letters in transliterations and turns any other
// non-ASCII letter into a space. Remaining non-ASCII runes are dropped.
func asciiFold(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)))
	decomposed, _, err := transform.String(t, s)
	if err != nil {
		decomposed = s
	}

	var b strings.Builder
	b.Grow(len(decomposed))
	for _, r := range decomposed {
		switch {
		case r < unicode.MaxASCII:
			b.WriteRune(r)
		case transliterations[r] != "":
			b.WriteString(transliterations[r])
		case unicode.IsLetter(r):
			b.WriteByte(' ')
		}
	}
	return b.String()
}
