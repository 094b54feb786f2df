package models

// APIResponse is the JSON envelope of every admin API reply.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"`
	Result  interface{} `json:"result,omitempty"`
}

// Envelope status values.
const (
	APIStatusOK    = "ok"
	APIStatusError = "error"
)

// Success wraps result in an ok envelope.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Result: result}
}

// SuccessWithMessage is Success with a human-readable note.
func SuccessWithMessage(message string, result interface{}) APIResponse {
	return APIResponse{Status: APIStatusOK, Message: message, Result: result}
}

// Error builds an error envelope.
func Error(message string) APIResponse {
	return APIResponse{Status: APIStatusError, Message: message}
}
