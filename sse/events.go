package sse

// Event names sent for a job stream.
const (
	// EventProgress carries a running job's progress.
	EventProgress = "progress"
	// EventResult carries the merged result and ends the stream.
	EventResult = "result"
	// EventError carries an error body and ends the stream.
	EventError = "error"
)

// Event is one message. An Event with an empty Name is not sent.
type Event struct {
	Name string
	Data any
}
