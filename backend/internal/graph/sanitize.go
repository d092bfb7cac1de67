package graph

import (
	"strings"
	"unicode"
)

// UnnamedEntity is returned by Sanitize when nothing usable is left of a name.
const UnnamedEntity = "unnamed_entity"

// Sanitize turns a free-text name into an identifier fragment: letters, digits,
// underscores and hyphens are kept, whitespace runs become single underscores,
// everything else is dropped. It never fails.
func Sanitize(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingSpace := false
	for _, r := range name {
		switch {
		case unicode.IsSpace(r):
			pendingSpace = b.Len() > 0
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsMark(r), r == '_', r == '-':
			if pendingSpace {
				b.WriteByte('_')
				pendingSpace = false
			}
			b.WriteRune(r)
		}
	}

	if b.Len() == 0 {
		return UnnamedEntity
	}
	return b.String()
}
