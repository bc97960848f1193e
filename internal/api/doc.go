// Package api handles incoming HTTP requests, routing, request validation,
// and response formatting. It adapts the checklist service to HTTP: JSON for
// checklists, tasks and remarks, text/markdown for import and export, and
// server-sent events for workflow changes.
package api
