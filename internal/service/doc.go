// Package service contains the application-specific use cases and business
// logic. It orchestrates interactions between domain objects, the workflow
// state machine and the document store (defined in internal/store) to fulfill
// application features.
//
// Key components:
//
// 1. Repository:
//   - Loads checklists with the stale sweep applied and persisted
//   - Runs every mutation as a read-modify-write against the latest version,
//     retrying writes that lose an optimistic concurrency race
//
// 2. ChecklistService:
//   - Checklist, task and remark use cases for the delivery mechanisms
//   - Hands enqueued ai-todos and prompt executions to the scheduler
//
// 3. Identity:
//   - IdentityProvider supplies the acting user, who authors new remarks
//
// The service layer depends on domain entities and store interfaces, never on
// specific infrastructure implementations.
package service
