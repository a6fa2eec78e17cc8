package model

// Error kinds carried in ErrorResponse.Error. Clients switch on these, not
// on the human-readable message.
const (
	KindValidation      = "validation_error"
	KindUnauthorized    = "unauthorized"
	KindForbidden       = "forbidden"
	KindNotFound        = "not_found"
	KindConflict        = "conflict"
	KindPayloadTooLarge = "payload_too_large"
	KindRateLimited     = "rate_limited"
	KindUnavailable     = "unavailable"
	KindServerError     = "server_error"
)

type FieldViolation struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

type ErrorResponse struct {
	Error   string           `json:"error"`
	Message string           `json:"message,omitempty"`
	Fields  []FieldViolation `json:"fields,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type RootResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
