// Package workflow implements the remark-embedded execution lifecycle.
//
// A remark records an asynchronous AI execution through a workflow tag. On
// the wire the tag is a text prefix such as "[ai-todo|queued] summarise the
// thread"; in memory it is a domain.WorkflowTag next to the payload. This
// package owns the conversion between the two (the tag grammar, including the
// migration of the legacy "TODO (Assigned to AI): " convention), the state
// machine for both families, the stale-state sweep, and the retry cooldown
// policy.
package workflow
