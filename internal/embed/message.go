package embed

import (
	"encoding/json"
	"errors"
	"fmt"
)

// MessageType tags a message sent from the iframe to its host.
type MessageType string

// TypeResize reports the iframe's rendered content height.
const TypeResize MessageType = "resize"

var (
	// ErrOriginMismatch indicates a message from an origin other than the iframe's.
	ErrOriginMismatch = errors.New("message origin mismatch")
	// ErrUnsupportedMessage indicates a message kind the host does not handle.
	ErrUnsupportedMessage = errors.New("unsupported message")
)

// Message is the envelope posted to the host window.
type Message struct {
	Type   MessageType `json:"type"`
	Height int         `json:"height,omitempty"`
}

// NewResize builds a resize notification.
func NewResize(height int) Message {
	return Message{Type: TypeResize, Height: height}
}

// Encode serializes m for postMessage.
func Encode(m Message) ([]byte, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("encode message: %w", err)
	}
	return data, nil
}

// Accept validates an inbound message the way the host listener does: the
// sender origin must equal the iframe origin exactly and only positive
// resize messages are honoured.
func Accept(origin, iframeOrigin string, data []byte) (Message, error) {
	if origin != iframeOrigin {
		return Message{}, fmt.Errorf("accept message from %q: %w", origin, ErrOriginMismatch)
	}

	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("decode message: %w", ErrUnsupportedMessage)
	}
	if m.Type != TypeResize || m.Height <= 0 {
		return Message{}, fmt.Errorf("message type %q: %w", m.Type, ErrUnsupportedMessage)
	}
	return m, nil
}
