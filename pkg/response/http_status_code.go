package response

const (
	ErrCodeSuccess      = 2000 // Success
	ErrCodeParamInvalid = 4003 // Parameter invalid
	ErrCodeUnauthorized = 4010 // Missing or invalid credentials
	ErrCodeNotFound     = 4040 // Resource not found
	ErrCodeRateLimited  = 4290 // Too many requests
	ErrCodeInternal     = 5000 // Internal error
)

// message
var msg = map[int]string{
	ErrCodeSuccess:      "success",
	ErrCodeParamInvalid: "invalid parameter",
	ErrCodeUnauthorized: "unauthorized",
	ErrCodeNotFound:     "not found",
	ErrCodeRateLimited:  "rate limit exceeded",
	ErrCodeInternal:     "internal server error",
}

// Message returns the default text of code
func Message(code int) string {
	if m, ok := msg[code]; ok {
		return m
	}
	return "unknown error"
}
