// Package domain contains the core business entities, value objects, and
// domain logic of the application: checklists, their tasks, and the remarks
// attached to each task. A remark may carry a workflow tag, which makes it
// the state record of an asynchronous AI execution. The package is
// independent of any storage, transport, or text format.
package domain
