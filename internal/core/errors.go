package core

// Error codes for domain errors.
const (
	ErrCodeInvalidUsername  = "invalid_username"
	ErrCodeInvalidMessage   = "invalid_message"
	ErrCodeDangerousContent = "dangerous_content"
	ErrCodeInternal         = "internal_error"
)

// CoreError wraps a code and human-readable message.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}
