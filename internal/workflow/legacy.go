package workflow

import (
	"strings"

	"github.com/phrazzld/checklist-api/internal/domain"
)

// LegacyTodoPrefix is the deprecated free-text marker for AI to-dos that
// predates the bracket tag syntax.
const LegacyTodoPrefix = "TODO (Assigned to AI): "

// DecodeLegacy reads a tag like DecodeTag and additionally migrates the
// legacy marker: "TODO (Assigned to AI): call the client" decodes as
// ai-todo|pending with payload "call the client". Text that already starts
// with a bracket tag is decoded as-is, so migrated text is never migrated
// again. Only the import path uses this.
func DecodeLegacy(text string) (Decoded, bool) {
	if d, ok := DecodeTag(text); ok {
		return d, true
	}

	if rest, ok := strings.CutPrefix(text, LegacyTodoPrefix); ok {
		return Decoded{
			Family:  domain.FamilyAITodo,
			State:   domain.StatePending,
			Payload: rest,
		}, true
	}

	return Decoded{}, false
}

// ParseImportedRemarkText is ParseRemarkText with legacy migration.
func ParseImportedRemarkText(text string) (string, *domain.WorkflowTag) {
	if d, ok := DecodeLegacy(text); ok {
		return d.Payload, d.Tag()
	}
	return text, nil
}
