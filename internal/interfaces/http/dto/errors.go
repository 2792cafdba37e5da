package dto

import "net/http"

// General error codes
const (
	ErrCodeInternal   = "ERR_INTERNAL"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeNotFound   = "ERR_NOT_FOUND"
	ErrCodeConflict   = "ERR_CONFLICT"
)

// domainErrorHTTPStatus maps domain error codes to HTTP status codes.
// Codes not present here default to 400: domain validation failures are
// client errors unless stated otherwise.
var domainErrorHTTPStatus = map[string]int{
	"NOT_FOUND":      http.StatusNotFound,
	"ALREADY_EXISTS": http.StatusConflict,
	"INVALID_STATE":  http.StatusUnprocessableEntity,
	"EMPTY_CART":     http.StatusUnprocessableEntity,
}

// GetHTTPStatus returns the HTTP status code for a domain error code
func GetHTTPStatus(code string) int {
	if status, ok := domainErrorHTTPStatus[code]; ok {
		return status
	}
	return http.StatusBadRequest
}
