// Package postgres implements store.DocumentStore on PostgreSQL. Each
// checklist is one row holding the document as JSONB next to the version
// column used for optimistic concurrency. The schema is managed by goose
// migrations embedded in the binary.
package postgres
