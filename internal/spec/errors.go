package spec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMissingSecret is returned by any generator that lacks secret material
// it needs. No partial artifact accompanies it.
var ErrMissingSecret = errors.New("missing secret material")

type ErrorCode string

const (
	CodeUnknownService     ErrorCode = "UNKNOWN_SERVICE"
	CodeInvalidSlug        ErrorCode = "INVALID_SLUG"
	CodeReservedHost       ErrorCode = "RESERVED_HOST"
	CodeReservedClientID   ErrorCode = "RESERVED_CLIENT_ID"
	CodeInvalidAuthType    ErrorCode = "INVALID_AUTH_TYPE"
	CodeAuthRolesMismatch  ErrorCode = "AUTH_ROLES_MISMATCH"
	CodeRoleNotInAllowlist ErrorCode = "ROLE_NOT_IN_ALLOWLIST"
	CodeUsersNotAllowed    ErrorCode = "USERS_NOT_ALLOWED"
	CodeInvalidUsername    ErrorCode = "INVALID_USERNAME"
	CodeDuplicateUsername  ErrorCode = "DUPLICATE_USERNAME"
	CodeInvalidEmail       ErrorCode = "INVALID_EMAIL"
	CodeMissingPassword    ErrorCode = "MISSING_PASSWORD"
	CodeUserNoRoles        ErrorCode = "USER_NO_ROLES"
	CodeInvalidRole        ErrorCode = "INVALID_ROLE"
	CodeDuplicateRole      ErrorCode = "DUPLICATE_ROLE"
	CodeDuplicateHost      ErrorCode = "DUPLICATE_HOST"
)

// ValidationError points at one problem in the source declaration.
type ValidationError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Path    string    `json:"path"`
}

func (e ValidationError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Path, e.Message)
}

// ValidationErrors is always the complete list; it is never cut at the first entry.
type ValidationErrors []ValidationError

func (l ValidationErrors) Error() string {
	msgs := make([]string, 0, len(l))
	for _, e := range l {
		msgs = append(msgs, e.Error())
	}
	return fmt.Sprintf("%d validation error(s):\n  %s", len(l), strings.Join(msgs, "\n  "))
}

func (l ValidationErrors) Has(code ErrorCode) bool {
	for _, e := range l {
		if e.Code == code {
			return true
		}
	}
	return false
}

func (l ValidationErrors) ByCode(code ErrorCode) ValidationErrors {
	var out ValidationErrors
	for _, e := range l {
		if e.Code == code {
			out = append(out, e)
		}
	}
	return out
}
