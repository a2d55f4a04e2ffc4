package router

// Error codes
const (
	ErrInternalCode           = "INTERNAL_ERROR"
	ErrBadRequestCode         = "BAD_REQUEST"
	ErrValidationCode         = "VALIDATION_ERROR"
	ErrNotFoundCode           = "NOT_FOUND"
	ErrTooManyRequestsCode    = "RATE_LIMITED"
	ErrServiceUnavailableCode = "SERVICE_UNAVAILABLE"
)

// Error messages
const (
	ErrMsgInternal   = "an unexpected error occurred"
	ErrMsgValidation = "validation failed"
	ErrMsgInvalidID  = "id must be a positive integer"
	ErrMsgBadJSON    = "request body must be a valid JSON object"
)
