package shared

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound      = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput  = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidState  = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// Error codes for the reconciliation flows. Each multi-step orchestration
// classifies its failures with one of these so the HTTP layer can map them
// to a status and callers can tell "order lost" apart from "email lost".
const (
	CodeValidation   = "VALIDATION"
	CodeGateway      = "GATEWAY"
	CodeLedgerWrite  = "LEDGER_WRITE"
	CodeNotification = "NOTIFICATION"
	CodeSignature    = "SIGNATURE"
	CodeDuplicate    = "DUPLICATE_REQUEST"
)

// NewValidationError reports missing or malformed caller input. No side
// effects have occurred when this is returned.
func NewValidationError(message string) *DomainError {
	return NewDomainError(CodeValidation, message)
}

// NewGatewayError reports a payment-provider rejection. The provider message
// is carried verbatim; partial provider-side state may persist.
func NewGatewayError(message string) *DomainError {
	return NewDomainError(CodeGateway, message)
}

// NewLedgerWriteError reports a failed ledger upsert/insert.
func NewLedgerWriteError(message string) *DomainError {
	return NewDomainError(CodeLedgerWrite, message)
}

// NewNotificationError reports a failed email send. The underlying
// order/subscription is still considered successful.
func NewNotificationError(message string) *DomainError {
	return NewDomainError(CodeNotification, message)
}

// NewSignatureError reports a webhook authenticity failure.
func NewSignatureError(message string) *DomainError {
	return NewDomainError(CodeSignature, message)
}

// NewDuplicateRequestError reports a request ID that was already accepted.
func NewDuplicateRequestError(message string) *DomainError {
	return NewDomainError(CodeDuplicate, message)
}
