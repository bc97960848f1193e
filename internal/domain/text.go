package domain

import (
	"fmt"
	"strings"
)

// UnassignedLabel is how a task without an assignee is written out.
const UnassignedLabel = "Unassigned"

// NormalizeNewlines converts CRLF and lone CR line endings to LF.
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// IsPlaceholderAssignee reports whether name stands for "nobody".
func IsPlaceholderAssignee(name string) bool {
	return name == "" || strings.EqualFold(name, UnassignedLabel) || name == "[name]"
}

// checkLine requires a single trimmed line of text.
func checkLine(field, s string) error {
	if strings.ContainsAny(s, "\r\n") {
		return fmt.Errorf("%w: %s must be a single line", ErrInvalidText, field)
	}
	if strings.TrimSpace(s) != s {
		return fmt.Errorf("%w: %s has surrounding whitespace", ErrInvalidText, field)
	}
	return nil
}

// checkBody allows line breaks inside a remark body but not at its edges as
// spaces or tabs, and no carriage returns.
func checkBody(s string) error {
	if strings.ContainsRune(s, '\r') {
		return fmt.Errorf("%w: body contains a carriage return", ErrInvalidText)
	}
	if strings.Trim(s, " \t") != s {
		return fmt.Errorf("%w: body has surrounding spaces", ErrInvalidText)
	}
	return nil
}
