package common

import (
	"path"
	"strings"
	"unicode"

	"golang.org/x/mod/module"
)

// UnknownStr is the String() value of out-of-range enum values.
const UnknownStr = "unknown"

// PkgAlias returns a usable identifier for a package path: its last element
// with a major-version suffix ("/v2", ".v3") skipped and characters that are
// not valid in identifiers removed.
// Returns empty string if pkgPath is empty.
func PkgAlias(pkgPath string) string {
	if pkgPath == "" {
		return ""
	}

	prefix := pkgPath
	if p, _, ok := module.SplitPathVersion(pkgPath); ok {
		prefix = p
	}

	base := path.Base(prefix)
	base = strings.TrimPrefix(base, "go-")

	var sb strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			sb.WriteRune(r)
		}
	}

	alias := sb.String()
	if alias == "" || unicode.IsDigit([]rune(alias)[0]) {
		alias = "pkg" + alias
	}

	return alias
}

// Capitalize upper-cases the first letter of s.
func Capitalize(s string) string {
	if s == "" {
		return s
	}

	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])

	return string(r)
}

// Identifier squeezes an arbitrary type string into a CamelCase identifier
// fragment, e.g. "[int, example.com/a.B]" -> "IntB".
func Identifier(s string) string {
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '/' || r == '_')
	})

	var sb strings.Builder
	for _, part := range parts {
		if i := strings.LastIndexAny(part, "./"); i >= 0 {
			part = part[i+1:]
		}

		sb.WriteString(Capitalize(strings.ReplaceAll(part, "_", "")))
	}

	return sb.String()
}
