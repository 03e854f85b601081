package serrors

import (
	"errors"
	"fmt"
)

// Kind classifies an error for callers that need to map failures to a
// transport-level outcome (400 vs 404 vs 500) without string matching.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindCapacity    Kind = "capacity_exceeded"
	KindConsistency Kind = "consistency"
	KindLockout     Kind = "lockout"
	KindGateway     Kind = "external_gateway"
)

type Error struct {
	Code    string
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Is makes sentinel comparison work across Wrap copies of the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

func New(kind Kind, code, message string) *Error {
	return &Error{Code: code, Kind: kind, Message: message}
}

// Wrap attaches a cause to a copy of err, preserving its code and kind.
func Wrap(err *Error, cause error) *Error {
	return &Error{Code: err.Code, Kind: err.Kind, Message: err.Message, cause: cause}
}

func NewValidation(code, message string) *Error {
	return New(KindValidation, code, message)
}

func NewNotFound(code, message string) *Error {
	return New(KindNotFound, code, message)
}

// IsKind reports whether err or any error in its chain carries the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

var (
	ErrPhoneNumberDuplicated  = NewValidation("PHONE_NUMBER_DUPLICATED", "phone number is already registered to another tenant")
	ErrEmailAddressDuplicated = NewValidation("EMAIL_ADDRESS_DUPLICATED", "email address is already registered to another tenant")
	ErrDuplicateRoleName      = NewValidation("DUPLICATE_ROLE_NAME", "a role with this name already exists in the tenant")
	ErrCyclicReparent         = NewValidation("CYCLIC_REPARENT", "an organization unit cannot be moved under itself or one of its descendants")
	ErrCapacityExceeded       = New(KindCapacity, "CAPACITY_EXCEEDED", "sibling code space is exhausted under this parent")
	ErrTenantNotFound         = NewNotFound("TENANT_NOT_FOUND", "tenant not found")
	ErrRoleNotFound           = NewNotFound("ROLE_NOT_FOUND", "role not found")
	ErrOrgUnitNotFound        = NewNotFound("ORG_UNIT_NOT_FOUND", "organization unit not found")
	ErrUserNotFound           = NewNotFound("USER_NOT_FOUND", "user not found")
	ErrPartialProvisioning    = New(KindConsistency, "PARTIAL_PROVISIONING", "tenant row was committed but provisioning did not complete")
	ErrInvalidCredentials     = NewValidation("INVALID_CREDENTIALS", "invalid credentials")
	ErrSmsLoginDisabled       = NewValidation("SMS_LOGIN_DISABLED", "SMS authentication is disabled for this tenant")
)
