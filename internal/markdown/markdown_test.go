package markdown

import (
	"strings"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/phrazzld/checklist-api/internal/domain"
	"github.com/phrazzld/checklist-api/internal/thread"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 15, 14, 30, 0, 0, time.UTC)

func testOptions() DecodeOptions {
	return DecodeOptions{Now: func() time.Time { return fixedNow }}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustTask(t *testing.T, c *domain.Checklist, desc string, p domain.Priority, due civil.Date, assignee string) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(desc, p, due, assignee)
	require.NoError(t, err)
	require.NoError(t, c.AddTask(task))
	return task
}

func mustRemark(t *testing.T, task *domain.Task, body string, tag *domain.WorkflowTag, author string, at time.Time, parent *domain.Remark) *domain.Remark {
	t.Helper()
	var parentID *uuid.UUID
	if parent != nil {
		id := parent.ID
		parentID = &id
	}
	r, err := domain.NewRemark(body, tag, author, at, parentID)
	require.NoError(t, err)
	require.NoError(t, task.AddRemark(r))
	return r
}

// remarkShape is a remark with its identity replaced by its parent's display
// position, so checklists can be compared across generated IDs.
type remarkShape struct {
	Body      string
	Workflow  *domain.WorkflowTag
	Author    string
	Timestamp time.Time
	Depth     int
	Parent    int
}

type taskShape struct {
	Description string
	Status      domain.TaskStatus
	Assignee    string
	Due         civil.Date
	Priority    domain.Priority
	Remarks     []remarkShape
}

func shapeOf(c *domain.Checklist) (string, []taskShape) {
	tasks := make([]taskShape, 0, len(c.Tasks))
	for _, task := range c.Tasks {
		entries := thread.Flatten(task.Remarks)
		position := make(map[uuid.UUID]int, len(entries))
		for i, e := range entries {
			position[e.Remark.ID] = i
		}

		remarks := make([]remarkShape, 0, len(entries))
		for _, e := range entries {
			parent := -1
			if e.Remark.ParentID != nil {
				parent = position[*e.Remark.ParentID]
			}
			remarks = append(remarks, remarkShape{
				Body:      e.Remark.Body,
				Workflow:  e.Remark.Workflow,
				Author:    e.Remark.Author,
				Timestamp: e.Remark.Timestamp,
				Depth:     e.Depth,
				Parent:    parent,
			})
		}

		tasks = append(tasks, taskShape{
			Description: task.Description,
			Status:      task.Status,
			Assignee:    task.Assignee,
			Due:         task.Due,
			Priority:    task.Priority,
			Remarks:     remarks,
		})
	}
	return c.Name, tasks
}

func sampleChecklist(t *testing.T) *domain.Checklist {
	t.Helper()

	c, err := domain.NewChecklist("Product Launch")
	require.NoError(t, err)

	draft := mustTask(t, c, "Draft announcement", domain.PriorityHigh, civil.Date{Year: 2026, Month: 5, Day: 1}, "")
	todo := mustRemark(t, draft, "draft the launch email", &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StateCompleted}, "alice", day(2026, 4, 20), nil)
	result := mustRemark(t, draft, "Subject: We're live\nBody: ...", nil, domain.AssistantAuthor, day(2026, 4, 20), todo)
	mustRemark(t, draft, "make it shorter", &domain.WorkflowTag{Family: domain.FamilyPromptExecution, State: domain.StatePending}, "alice", day(2026, 4, 21), result)
	mustRemark(t, draft, "Looks good to me", nil, "bob", day(2026, 4, 22), nil)
	mustRemark(t, draft, "", &domain.WorkflowTag{Family: domain.FamilyAITodo, State: domain.StateFailed}, "carol", day(2026, 4, 23), nil)

	mustTask(t, c, "Book venue (downtown)", domain.PriorityLow, civil.Date{Year: 2026, Month: 6, Day: 30}, "bob")

	done := mustTask(t, c, "Pick a date", domain.PriorityMedium, civil.Date{Year: 2026, Month: 3, Day: 1}, "carol")
	done.Status = domain.TaskStatusComplete
	mustRemark(t, done, "Settled on May 1st", nil, "carol", day(2026, 3, 1), nil)

	return c
}

func TestEncode(t *testing.T) {
	t.Parallel()

	got := Encode(sampleChecklist(t))

	want := `# Product Launch

## Incomplete Tasks

- [ ] **Draft announcement** (Priority: High, Due: 2026-05-01) - *Assignee: Unassigned*
  - > #20260420 [ai-todo|completed] draft the launch email (by alice)
    - > #20260420 Subject: We're live<br>Body: ... (by ai-assistant)
      - > #20260421 [prompt-execution|pending] make it shorter (by alice)
  - > #20260422 Looks good to me (by bob)
  - > #20260423 [ai-todo|failed]  (by carol)
- [ ] **Book venue (downtown)** (Priority: Low, Due: 2026-06-30) - *Assignee: bob*

## Completed Tasks

- [x] **Pick a date** (Priority: Medium, Due: 2026-03-01) - *Assignee: carol*
  - > #20260301 Settled on May 1st (by carol)
`
	assert.Equal(t, want, got)
}

func TestEncode_EmptyChecklist(t *testing.T) {
	t.Parallel()

	c, err := domain.NewChecklist("Nothing here")
	require.NoError(t, err)

	assert.Equal(t, "# Nothing here\n\n_No tasks yet._\n", Encode(c))
}

func TestEncode_InProgressIsIncomplete(t *testing.T) {
	t.Parallel()

	c, err := domain.NewChecklist("Work")
	require.NoError(t, err)
	task := mustTask(t, c, "Halfway", domain.PriorityMedium, civil.Date{Year: 2026, Month: 1, Day: 2}, "")
	task.Status = domain.TaskStatusInProgress

	got := Encode(c)
	assert.Contains(t, got, "## Incomplete Tasks")
	assert.NotContains(t, got, "## Completed Tasks")
	assert.Contains(t, got, "- [ ] **Halfway**")
}

func TestRoundTrip(t *testing.T) {
	t.Parallel()

	original := sampleChecklist(t)

	decoded, err := Decode(Encode(original), testOptions())
	require.NoError(t, err)

	wantName, wantTasks := shapeOf(original)
	gotName, gotTasks := shapeOf(decoded)
	assert.Equal(t, wantName, gotName)
	assert.Equal(t, wantTasks, gotTasks)

	assert.Equal(t, Encode(original), Encode(decoded), "encoding is stable")
}

func TestRoundTrip_ReservedText(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		description string
		assignee    string
		body        string
		author      string
	}{
		{name: "repeated spaces in description", description: "two  spaces", body: "ok", author: "alice"},
		{name: "literal break in body", description: "x", body: "use a <br> here", author: "alice"},
		{name: "escaped break spelled out", description: "x", body: "write &lt;br> for a break", author: "alice"},
		{name: "doubly escaped break", description: "x", body: "&amp;lt;br> and &amp;amp;lt;br>", author: "alice"},
		{name: "literal break beside newline", description: "x", body: "<br>\n&lt;br>\n<br", author: "alice"},
		{name: "trailing newline", description: "x", body: "ends with a break\n", author: "alice"},
		{name: "body ending in a byline", description: "x", body: "plain (by Ann)", author: "alice"},
		{name: "spaced author and assignee", description: "x", assignee: "Ann  Lee", body: "ok", author: "Ann  Lee"},
		{name: "markup in description", description: "**bold** (Priority: High)", body: "ok", author: "alice"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c, err := domain.NewChecklist("Edge cases")
			require.NoError(t, err)
			task := mustTask(t, c, tc.description, domain.PriorityHigh, civil.Date{Year: 2026, Month: 2, Day: 3}, tc.assignee)
			mustRemark(t, task, tc.body, nil, tc.author, day(2026, 2, 1), nil)

			encoded := Encode(c)
			decoded, err := Decode(encoded, testOptions())
			require.NoError(t, err)

			wantName, wantTasks := shapeOf(c)
			gotName, gotTasks := shapeOf(decoded)
			assert.Equal(t, wantName, gotName)
			assert.Equal(t, wantTasks, gotTasks, encoded)
			assert.Equal(t, encoded, Encode(decoded))
		})
	}
}

func TestDecode_MissingTitle(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"no heading", "Product Launch\n\n- [ ] **A**"},
		{"second level heading", "## Incomplete Tasks\n"},
		{"blank title", "#   \n"},
		{"title not first", "\n# Late title\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c, err := Decode(tc.text, testOptions())
			assert.ErrorIs(t, err, ErrMissingTitle)
			assert.ErrorIs(t, err, domain.ErrInvalidFormat)
			assert.Nil(t, c)
		})
	}
}

func TestDecode_Defaults(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"# Defaults",
		"- [ ] Plain description",
		"- [X] **Bold** (priority: LOW, due: not-a-date)",
		"- [ ] **Odd priority** (Priority: Urgent, Due: 2026-02-30) - *Assignee: [name]*",
		"- [ ] Meeting (room 4)",
	}, "\n")

	c, err := Decode(text, testOptions())
	require.NoError(t, err)
	require.Len(t, c.Tasks, 4)

	today := civil.Date{Year: 2026, Month: 6, Day: 15}

	plain := c.Tasks[0]
	assert.Equal(t, "Plain description", plain.Description)
	assert.Equal(t, domain.PriorityMedium, plain.Priority)
	assert.Equal(t, today, plain.Due)
	assert.Equal(t, "", plain.Assignee)
	assert.Equal(t, domain.TaskStatusPending, plain.Status)

	bold := c.Tasks[1]
	assert.Equal(t, "Bold", bold.Description)
	assert.Equal(t, domain.PriorityLow, bold.Priority)
	assert.Equal(t, today, bold.Due)
	assert.Equal(t, domain.TaskStatusComplete, bold.Status)

	odd := c.Tasks[2]
	assert.Equal(t, domain.PriorityMedium, odd.Priority)
	assert.Equal(t, today, odd.Due)
	assert.Equal(t, "", odd.Assignee)

	assert.Equal(t, "Meeting (room 4)", c.Tasks[3].Description)
}

func TestDecode_RemarkRules(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"# Remarks",
		"",
		"  - > #20260101 stray remark (by nobody)",
		"## Incomplete Tasks",
		"some prose that is not a task",
		"- [ ] **Call the client**",
		"  - > TODO (Assigned to AI): call the client",
		"  - > #20260102 [ai-todo|queued] already tagged (by dana)",
		"  - > #2026XX01 bad date stays in text",
		"",
	}, "\n")

	c, err := Decode(text, testOptions())
	require.NoError(t, err)
	require.Len(t, c.Tasks, 1)

	remarks := c.Tasks[0].Remarks
	require.Len(t, remarks, 3, "remark before the first task is dropped")

	legacy := remarks[0]
	require.NotNil(t, legacy.Workflow)
	assert.Equal(t, domain.FamilyAITodo, legacy.Workflow.Family)
	assert.Equal(t, domain.StatePending, legacy.Workflow.State)
	assert.Equal(t, "call the client", legacy.Body)
	assert.Equal(t, domain.SystemAuthor, legacy.Author)
	assert.Equal(t, fixedNow, legacy.Timestamp)

	tagged := remarks[1]
	assert.Equal(t, "dana", tagged.Author)
	assert.Equal(t, day(2026, 1, 2), tagged.Timestamp)
	assert.Equal(t, domain.StateQueued, tagged.Workflow.State)
	assert.Equal(t, "already tagged", tagged.Body)

	plain := remarks[2]
	assert.Nil(t, plain.Workflow)
	assert.Equal(t, "#2026XX01 bad date stays in text", plain.Body)
}

func TestDecode_LegacyMigrationIsStable(t *testing.T) {
	t.Parallel()

	text := "# Legacy\n- [ ] **Follow up**\n  - > #20260301 TODO (Assigned to AI): call the client (by erin)\n"

	first, err := Decode(text, testOptions())
	require.NoError(t, err)
	exported := Encode(first)
	assert.Contains(t, exported, "[ai-todo|pending] call the client (by erin)")

	second, err := Decode(exported, testOptions())
	require.NoError(t, err)
	assert.Equal(t, exported, Encode(second))
}

func TestDecode_Nesting(t *testing.T) {
	t.Parallel()

	text := strings.Join([]string{
		"# Nest",
		"- [ ] **Thread**",
		"  - > #20260101 root (by a)",
		"    - > #20260102 child (by b)",
		"          - > #20260103 too deep is clamped (by c)",
		"  - > #20260104 second root (by d)",
		"- [ ] **Next task**",
		"    - > #20260105 indented first remark becomes a root (by e)",
	}, "\n")

	c, err := Decode(text, testOptions())
	require.NoError(t, err)
	require.Len(t, c.Tasks, 2)

	entries := thread.Flatten(c.Tasks[0].Remarks)
	require.Len(t, entries, 4)
	assert.Equal(t, []int{0, 1, 2, 0}, []int{entries[0].Depth, entries[1].Depth, entries[2].Depth, entries[3].Depth})
	assert.Equal(t, entries[1].Remark.ID, *entries[2].Remark.ParentID)

	next := c.Tasks[1].Remarks
	require.Len(t, next, 1)
	assert.Nil(t, next[0].ParentID)
}

func TestDecode_MultilineRemark(t *testing.T) {
	t.Parallel()

	text := "# ML\n- [ ] **Notes**\n  - > #20260101 line one<br>line two (by a)\n"

	c, err := Decode(text, testOptions())
	require.NoError(t, err)
	assert.Equal(t, "line one\nline two", c.Tasks[0].Remarks[0].Body)
}

func TestDecode_UsesInjectedIDs(t *testing.T) {
	t.Parallel()

	var issued []uuid.UUID
	opts := testOptions()
	opts.NewID = func() uuid.UUID {
		id := uuid.New()
		issued = append(issued, id)
		return id
	}

	c, err := Decode("# IDs\n- [ ] **One**\n  - > hi (by a)\n", opts)
	require.NoError(t, err)
	require.Len(t, issued, 3)
	assert.Equal(t, issued[0], c.ID)
	assert.Equal(t, issued[1], c.Tasks[0].ID)
	assert.Equal(t, issued[2], c.Tasks[0].Remarks[0].ID)
}

func TestVerify(t *testing.T) {
	t.Parallel()

	canonical := Encode(sampleChecklist(t))

	result, err := Verify(canonical, testOptions())
	require.NoError(t, err)
	assert.True(t, result.IsCanonical())
	assert.Equal(t, canonical, result.Canonical)

	result, err = Verify("# Loose\n- [ ] Task without metadata\n", testOptions())
	require.NoError(t, err)
	assert.False(t, result.IsCanonical())
	assert.Contains(t, result.Canonical, "- [ ] **Task without metadata** (Priority: Medium, Due: 2026-06-15) - *Assignee: Unassigned*")
	assert.NotEmpty(t, result.Patch)

	_, err = Verify("no title", testOptions())
	assert.ErrorIs(t, err, ErrMissingTitle)
}
