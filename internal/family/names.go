package family

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var titleCaser = cases.Title(language.English)

// NormalizeName trims and title-cases a person name so "  aisha  KHAN " and
// "Aisha Khan" land in the database as the same string.
func NormalizeName(name string) string {
	fields := strings.Fields(name)
	for i, f := range fields {
		fields[i] = titleCaser.String(strings.ToLower(f))
	}
	return strings.Join(fields, " ")
}
