package markdown

import (
	"github.com/sergi/go-diff/diffmatchpatch"
)

// VerifyResult reports whether markdown was already in canonical form.
type VerifyResult struct {
	// Canonical is the text Encode produces for the decoded checklist.
	Canonical string
	// Patch is a diff-match-patch patch from the input to Canonical. It is
	// empty when the input was canonical.
	Patch string
}

// IsCanonical reports whether the input needed no changes.
func (r VerifyResult) IsCanonical() bool {
	return r.Patch == ""
}

// Verify decodes text and encodes it again. The result's patch lists what an
// export of the imported checklist would change, such as defaulted fields,
// dropped lines or normalised spacing.
func Verify(text string, opts DecodeOptions) (VerifyResult, error) {
	checklist, err := Decode(text, opts)
	if err != nil {
		return VerifyResult{}, err
	}

	canonical := Encode(checklist)
	if canonical == text {
		return VerifyResult{Canonical: canonical}, nil
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(text, canonical, false)
	patches := dmp.PatchMake(text, diffs)

	return VerifyResult{
		Canonical: canonical,
		Patch:     dmp.PatchToText(patches),
	}, nil
}
