// Package markdown converts checklists to and from their shareable markdown
// form.
//
// The format is line oriented. A title line is followed by an "Incomplete
// Tasks" and a "Completed Tasks" section, each listing task lines with their
// remark threads indented beneath them:
//
//	# Launch
//
//	## Incomplete Tasks
//
//	- [ ] **Draft announcement** (Priority: High, Due: 2026-05-01) - *Assignee: Unassigned*
//	  - > #20260420 [ai-todo|completed] draft it (by alice)
//	    - > #20260420 Here is a draft... (by ai-assistant)
//
// Remark text keeps its workflow tag prefix, so workflow state survives an
// export/import cycle. Import also migrates the legacy "TODO (Assigned to
// AI): " marker to an ai-todo tag.
package markdown
