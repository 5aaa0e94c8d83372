// Package stage defines the contract every pipeline stage honours and the
// explicit registry through which stages are instantiated by name.
//
// A stage reads (id, payload) messages from its input bus and writes exactly
// one message with the same id to its output bus for every message it reads,
// in the order received. When the end-of-stream marker arrives it is
// forwarded unchanged and the stage returns.
//
// Built-in stages:
//
//	identity   passes payloads through unchanged
//	tokenize   turns plain text into CoNLL-U with document, paragraph and sentence markers
//	exec       pipes each payload through an external annotation tool
package stage
