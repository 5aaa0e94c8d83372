package queue

// FinalID is the id carried by the end-of-stream marker.
const FinalID = "FINAL"

// Message is one unit of work travelling along the chain.
type Message struct {
	ID      string
	Payload string
}

// Final returns the end-of-stream marker.
func Final() Message {
	return Message{ID: FinalID}
}

// IsFinal reports whether m is the end-of-stream marker.
func (m Message) IsFinal() bool {
	return m.ID == FinalID
}
