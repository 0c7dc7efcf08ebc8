package request

import "fmt"

// Message is the JSON body the monitoring server replies with when there is
// nothing more useful to say than a line of text.
type Message struct {
	Message string `json:"Message"`
}

// NewMessage creates a Message, formatting when args are given.
func NewMessage(message string, args ...any) *Message {
	if len(args) > 0 {
		message = fmt.Sprintf(message, args...)
	}
	return &Message{
		Message: message,
	}
}

// MessageError pairs a message with the error that caused it, for responses
// where the caller should see both.
type MessageError struct {
	Message string `json:"Message"`
	Error   string `json:"Error"`
}

func NewMessageError(message string, err error) *MessageError {
	return &MessageError{
		Message: message,
		Error:   err.Error(),
	}
}
