package dto

import (
	"net/http"

	"github.com/wcpa/backend/internal/domain/shared"
)

// HTTP-layer error codes for failures that never reach a domain service
const (
	// ErrCodeBadRequest is used for malformed or unparseable requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL"
)

// ErrorCodeHTTPStatus maps domain error codes to HTTP status codes.
// Gateway rejections surface as 400 carrying the provider's message, the
// contract the storefront's payment form expects.
var ErrorCodeHTTPStatus = map[string]int{
	shared.CodeValidation:   http.StatusBadRequest,
	shared.CodeSignature:    http.StatusBadRequest,
	shared.CodeDuplicate:    http.StatusConflict,
	shared.CodeGateway:      http.StatusBadRequest,
	shared.CodeNotification: http.StatusBadGateway,
	shared.CodeLedgerWrite:  http.StatusInternalServerError,
	"NOT_FOUND":             http.StatusNotFound,
	ErrCodeBadRequest:       http.StatusBadRequest,
	ErrCodeInternal:         http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
