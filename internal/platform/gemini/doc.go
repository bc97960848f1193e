// Package gemini provides an implementation of the generation.Executor
// interface that uses Google's Gemini API.
//
// This package is an infrastructure adapter: it renders an execution request
// into a prompt, calls the model with exponential backoff on transient
// failures, and maps safety blocks and empty answers to the generation
// package's errors.
package gemini
