// Package store defines the persistence boundary for checklist documents.
//
// A checklist is stored and loaded as one document. Stores maintain
// domain.Checklist.Version as an optimistic concurrency token: Save succeeds
// only when the caller's version matches the stored one, and bumps it.
// Implementations live under internal/platform.
package store
