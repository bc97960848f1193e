// Package generation defines the boundary between the workflow engine and
// external AI/LLM services. The scheduler hands an Executor the instruction
// carried by an ai-todo or prompt-execution remark together with the task's
// context, and records whatever text comes back as a result remark. Concrete
// adapters (Gemini) live under internal/platform.
package generation
