package workflow

import (
	"strings"

	"github.com/phrazzld/checklist-api/internal/domain"
)

// Decoded is the result of reading a tag prefix from remark text.
type Decoded struct {
	Family  domain.WorkflowFamily
	State   domain.WorkflowState
	Payload string
}

// Tag returns the decoded family/state as a domain tag.
func (d Decoded) Tag() *domain.WorkflowTag {
	return &domain.WorkflowTag{Family: d.Family, State: d.State}
}

// EncodeTag renders "[family|state] payload".
func EncodeTag(family domain.WorkflowFamily, state domain.WorkflowState, payload string) string {
	var b strings.Builder
	b.Grow(len(family) + len(state) + len(payload) + 4)
	b.WriteByte('[')
	b.WriteString(string(family))
	b.WriteByte('|')
	b.WriteString(string(state))
	b.WriteString("] ")
	b.WriteString(payload)
	return b.String()
}

// DecodeTag reads a leading "[family|state] " prefix. It reports false for
// text that does not start with a tag of a known family in one of that
// family's states; such text is plain.
func DecodeTag(text string) (Decoded, bool) {
	if !strings.HasPrefix(text, "[") {
		return Decoded{}, false
	}

	end := strings.IndexByte(text, ']')
	if end < 0 {
		return Decoded{}, false
	}

	family, state, ok := strings.Cut(text[1:end], "|")
	if !ok {
		return Decoded{}, false
	}

	f := domain.WorkflowFamily(family)
	s := domain.WorkflowState(state)
	if !domain.IsValidState(f, s) {
		return Decoded{}, false
	}

	rest := text[end+1:]
	switch {
	case rest == "":
	case strings.HasPrefix(rest, " "):
		rest = rest[1:]
	default:
		// "[ai-todo|pending]x" is not a tag: the prefix must end with a space.
		return Decoded{}, false
	}

	return Decoded{Family: f, State: s, Payload: rest}, true
}

// RemarkText renders a remark's wire text: the tag prefix, if any, followed
// by the body.
func RemarkText(r *domain.Remark) string {
	if r.Workflow == nil {
		return r.Body
	}
	return EncodeTag(r.Workflow.Family, r.Workflow.State, r.Body)
}

// ParseRemarkText splits wire text into a body and an optional tag.
func ParseRemarkText(text string) (string, *domain.WorkflowTag) {
	if d, ok := DecodeTag(text); ok {
		return d.Payload, d.Tag()
	}
	return text, nil
}
