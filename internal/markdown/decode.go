package markdown

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/workflow"
)

// ErrMissingTitle is returned when the first line is not a "# <name>"
// heading. It wraps domain.ErrInvalidFormat.
var ErrMissingTitle = fmt.Errorf("%w: first line must be a \"# <name>\" title", domain.ErrInvalidFormat)

var (
	titleLine    = regexp.MustCompile(`^#\s+(.*\S)\s*$`)
	taskLine     = regexp.MustCompile(`^-\s+\[([ xX])\]\s*(.*)$`)
	remarkLine   = regexp.MustCompile(`^( *)-\s+>\s?(.*)$`)
	assigneePart = regexp.MustCompile(`\s+-\s+\*Assignee:\s*([^*]*)\*\s*$`)
	metadataPart = regexp.MustCompile(`\s*\(([^()]*:[^()]*)\)\s*$`)
	boldPart     = regexp.MustCompile(`^\*\*(.+)\*\*$`)
	remarkDate   = regexp.MustCompile(`^#(\d{8})(?:\s+|$)`)
	remarkAuthor = regexp.MustCompile(`\s*\(by ([^()]*)\)\s*$`)
)

// DecodeOptions supplies the clock and identity source used for values the
// markdown does not carry.
type DecodeOptions struct {
	// Now supplies the default due date and remark timestamp. Defaults to
	// time.Now.
	Now func() time.Time

	// NewID generates checklist, task and remark IDs. Defaults to uuid.New.
	NewID func() uuid.UUID

	// Logger receives debug records for skipped lines. Defaults to
	// slog.Default().
	Logger *slog.Logger
}

func (o DecodeOptions) withDefaults() DecodeOptions {
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.New
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// decoder holds the state of one Decode call.
type decoder struct {
	opts  DecodeOptions
	now   time.Time
	today civil.Date

	checklist *domain.Checklist
	task      *domain.Task
	// parents[d] is the last remark seen at depth d in the current task.
	parents []*domain.Remark
}

// Decode parses markdown into a checklist. The first line must be a title
// heading; otherwise ErrMissingTitle is returned and nothing is produced.
// Headings, blank lines and unrecognised lines are skipped, as is a remark
// that appears before any task.
func Decode(text string, opts DecodeOptions) (*domain.Checklist, error) {
	opts = opts.withDefaults()

	lines := strings.Split(domain.NormalizeNewlines(text), "\n")

	m := titleLine.FindStringSubmatch(strings.TrimPrefix(lines[0], "\ufeff"))
	if m == nil {
		return nil, ErrMissingTitle
	}

	now := opts.Now().UTC()
	d := &decoder{
		opts:  opts,
		now:   now,
		today: civil.DateOf(now),
		checklist: &domain.Checklist{
			ID:        opts.NewID(),
			Name:      strings.TrimSpace(m[1]),
			Tasks:     []*domain.Task{},
			UpdatedAt: now,
		},
	}

	for i, line := range lines[1:] {
		lineNo := i + 2
		if err := d.line(line, lineNo); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
	}

	return d.checklist, nil
}

func (d *decoder) line(line string, lineNo int) error {
	if m := taskLine.FindStringSubmatch(line); m != nil {
		return d.taskLine(m[1], m[2], lineNo)
	}

	if m := remarkLine.FindStringSubmatch(line); m != nil {
		d.remarkLine(len(m[1]), m[2], lineNo)
		return nil
	}

	return nil
}

func (d *decoder) taskLine(box, rest string, lineNo int) error {
	task := &domain.Task{
		ID:       d.opts.NewID(),
		Status:   domain.TaskStatusPending,
		Priority: domain.PriorityMedium,
		Due:      d.today,
		Remarks:  []*domain.Remark{},
	}
	if box != " " {
		task.Status = domain.TaskStatusComplete
	}

	if m := assigneePart.FindStringSubmatchIndex(rest); m != nil {
		name := strings.TrimSpace(rest[m[2]:m[3]])
		if !domain.IsPlaceholderAssignee(name) {
			task.Assignee = name
		}
		rest = rest[:m[0]]
	}

	if m := metadataPart.FindStringSubmatchIndex(rest); m != nil && d.applyMetadata(task, rest[m[2]:m[3]], lineNo) {
		rest = rest[:m[0]]
	}

	rest = strings.TrimSpace(rest)
	if m := boldPart.FindStringSubmatch(rest); m != nil {
		rest = strings.TrimSpace(m[1])
	}
	task.Description = rest

	if task.Description == "" {
		d.opts.Logger.Debug("skipping task line without description", "line", lineNo)
		d.task = nil
		d.parents = nil
		return nil
	}

	if err := d.checklist.AddTask(task); err != nil {
		return err
	}
	d.task = task
	d.parents = d.parents[:0]
	return nil
}

// applyMetadata reads "key: value" pairs. Unknown keys are ignored and bad
// values fall back to the defaults already on the task. It reports false when
// the block names neither key, in which case it belongs to the description.
func (d *decoder) applyMetadata(task *domain.Task, block string, lineNo int) bool {
	known := false
	for _, pair := range strings.Split(block, ",") {
		key, value, ok := strings.Cut(pair, ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)

		switch strings.ToLower(strings.TrimSpace(key)) {
		case "priority":
			known = true
			p, err := domain.ParsePriority(value)
			if err != nil {
				d.opts.Logger.Debug("defaulting unparseable priority", "line", lineNo, "value", value)
				continue
			}
			task.Priority = p
		case "due":
			known = true
			due, err := civil.ParseDate(value)
			if err != nil || !due.IsValid() {
				d.opts.Logger.Debug("defaulting unparseable due date", "line", lineNo, "value", value)
				continue
			}
			task.Due = due
		}
	}
	return known
}

func (d *decoder) remarkLine(indent int, content string, lineNo int) {
	if d.task == nil {
		d.opts.Logger.Debug("dropping remark before first task", "line", lineNo)
		return
	}

	depth := 0
	if indent > 2 {
		depth = (indent - 2) / 2
	}
	if depth > len(d.parents) {
		depth = len(d.parents)
	}

	timestamp := d.now
	if m := remarkDate.FindStringSubmatch(content); m != nil {
		if day, err := time.ParseInLocation(remarkDateLayout, m[1], time.UTC); err == nil {
			timestamp = day
		}
		content = content[len(m[0]):]
	}

	author := domain.SystemAuthor
	if m := remarkAuthor.FindStringSubmatchIndex(content); m != nil {
		if name := strings.TrimSpace(content[m[2]:m[3]]); name != "" {
			author = name
		}
		content = content[:m[0]]
	}

	body, tag := workflow.ParseImportedRemarkText(unescapeBody(strings.TrimSpace(content)))
	body = strings.Trim(body, " \t")

	remark := &domain.Remark{
		ID:        d.opts.NewID(),
		Body:      body,
		Workflow:  tag,
		Author:    author,
		Timestamp: timestamp,
	}
	if depth > 0 {
		parent := d.parents[depth-1].ID
		remark.ParentID = &parent
	}

	if err := d.task.AddRemark(remark); err != nil {
		d.opts.Logger.Debug("skipping invalid remark", "line", lineNo, "error", err)
		return
	}

	d.parents = append(d.parents[:depth], remark)
}
