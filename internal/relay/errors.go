package relay

import (
	"encoding/json"
	"fmt"
)

// RelayError is a failed hand-off to the messaging provider. Details keeps the
// upstream error document untouched for diagnostics.
type RelayError struct {
	// Status is the HTTP status reported upstream, 0 when no response arrived.
	Status  int
	Message string
	Details json.RawMessage
	Err     error
}

func (e *RelayError) Error() string {
	msg := e.Message
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *RelayError) Unwrap() error {
	return e.Err
}

// detailsFromBody keeps a JSON error body as is and wraps anything else as {"message": ...}.
func detailsFromBody(body []byte) json.RawMessage {
	if len(body) > 0 && json.Valid(body) {
		return json.RawMessage(body)
	}
	return messageDetails(string(body))
}

func messageDetails(message string) json.RawMessage {
	b, _ := json.Marshal(map[string]string{"message": message})
	return b
}
