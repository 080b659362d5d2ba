package request

import (
	"errors"
	"fmt"
)

// ErrInternalServer is the generic error returned for unexpected failures.
var ErrInternalServer = errors.New("internal server error")

// Message represents a message response.
type Message struct {
	Message string `json:"Message" xml:"Message"`
}

// NewMessage creates a new Message. Arguments, when given, are applied as
// fmt.Sprintf parameters.
func NewMessage(message string, args ...any) *Message {
	msg := message
	if len(args) > 0 {
		msg = fmt.Sprintf(message, args...)
	}
	return &Message{
		Message: msg,
	}
}

// MessageError represents a message response with an error. It is used when
// there is both a message for the client and an underlying error worth
// surfacing, such as a malformed request body.
type MessageError struct {
	Message string `json:"Message" xml:"Message"`
	Error   string `json:"Error" xml:"Error"`
}

// NewMessageError creates a new MessageError.
func NewMessageError(message string, err error) *MessageError {
	return &MessageError{
		Message: message,
		Error:   err.Error(),
	}
}
