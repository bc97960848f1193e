// Package task runs queued workflow remarks against the executor.
//
// The Scheduler owns a FIFO Queue of remark references and a single consumer
// goroutine. It processes one entry at a time across the whole system: the
// remark is durably marked running, the executor is called, and the result
// (or the error) is written back as a child remark. Enqueue and workflow
// events wake the consumer; it never polls.
package task
