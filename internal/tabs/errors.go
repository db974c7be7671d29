package tabs

import "fmt"

const (
	CodeValidation      = "VALIDATION"
	CodeTargetVanished  = "TARGET_VANISHED"
	CodeNoMatch         = "NO_MATCH"
	CodeHostUnavailable = "HOST_UNAVAILABLE"
	CodeHostTimeout     = "HOST_TIMEOUT"
	CodeHostRejected    = "HOST_REJECTED"
)

// CodedError is a typed error used for stable API mapping.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

// NewError builds a CodedError.
func NewError(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// TabVanished is the error hosts return for an unknown tab id.
func TabVanished(id TabID) error {
	return NewError(CodeTargetVanished, fmt.Sprintf("no tab with id %d", id), nil)
}

// GroupVanished is the error hosts return for an unknown group id.
func GroupVanished(id GroupID) error {
	return NewError(CodeTargetVanished, fmt.Sprintf("no group with id %d", id), nil)
}
