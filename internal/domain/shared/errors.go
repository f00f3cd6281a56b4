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

// Is reports whether target carries the same error code, so a specialised
// message such as "Plan not found" still matches ErrNotFound with errors.Is.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by the domain and the HTTP layer
const (
	CodeNotFound           = "NOT_FOUND"
	CodeAlreadyExists      = "ALREADY_EXISTS"
	CodeConflict           = "CONFLICT"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeQuotaExceeded      = "QUOTA_EXCEEDED"
	CodeStoreBusy          = "STORE_BUSY"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
)

// Common domain errors
var (
	ErrNotFound           = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists      = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrConflict           = NewDomainError(CodeConflict, "Resource conflicts with existing state")
	ErrInvalidInput       = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrUnauthorized       = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden          = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrQuotaExceeded      = NewDomainError(CodeQuotaExceeded, "Usage limit exceeded")
	ErrStoreBusy          = NewDomainError(CodeStoreBusy, "Store is busy, please retry")
	ErrInvalidCredentials = NewDomainError(CodeInvalidCredentials, "Invalid username or password")
)

// CodeOf returns the domain error code of err, or an empty string when err
// is not a DomainError.
func CodeOf(err error) string {
	for err != nil {
		if de, ok := err.(*DomainError); ok {
			return de.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return ""
		}
		err = u.Unwrap()
	}
	return ""
}
