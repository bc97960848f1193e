// Package events provides types and interfaces for workflow notifications.
//
// Components that change workflow state emit WorkflowEvents without knowing
// who listens. The scheduler handles them to wake up when work arrives, and
// the Hub fans them out to streaming HTTP clients.
//
// The primary components are:
// - WorkflowEvent: a state change of a tagged remark or of the queue
// - EventHandler: Interface for components that can handle events
// - EventEmitter: Interface for components that can emit events
// - Hub: buffered per-subscriber delivery for event streams
package events
