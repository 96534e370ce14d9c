package domain

// RawMessage is one <sms> element as read from the corpus.
type RawMessage struct {
	// Element is the 0-based position of the element in the source document.
	Element         int
	Body            string
	TimestampMillis *int64
}
