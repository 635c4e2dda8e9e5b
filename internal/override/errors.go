package override

import (
	"strings"
)

// Error is a configuration problem found while resolving an override.
type Error struct {
	Code    string
	Message string
	Target  string // target member name, if known
	// Fatal errors invalidate the whole mapping pair; others drop only the
	// override.
	Fatal       bool
	Suggestions []string
}

func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(e.Code)
	sb.WriteString(": ")
	sb.WriteString(e.Message)

	if len(e.Suggestions) > 0 {
		sb.WriteString(" (did you mean ")
		sb.WriteString(strings.Join(e.Suggestions, ", "))
		sb.WriteString("?)")
	}

	return sb.String()
}

func fatal(code, message string) *Error {
	return &Error{Code: code, Message: message, Fatal: true}
}

func dropped(code, message, target string) *Error {
	return &Error{Code: code, Message: message, Target: target}
}
