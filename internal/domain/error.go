package domain

import "errors"

var (
	// Common domain errors
	ErrNotFound        = errors.New("entity not found")
	ErrAlreadyExists   = errors.New("entity already exists")
	ErrInvalidArgument = errors.New("invalid argument")

	// Promotion code preconditions
	ErrCodeNotFound       = errors.New("promotion code not found")
	ErrInactiveCode       = errors.New("promotion code is not active")
	ErrExpiredCode        = errors.New("promotion code has expired")
	ErrGlobalLimitReached = errors.New("promotion code usage limit reached")
	ErrActorLimitReached  = errors.New("promotion code already used the maximum number of times")
	ErrAlreadyEntitled    = errors.New("target already has active access")

	// Entitlement targets and payments
	ErrTargetNotFound    = errors.New("entitlement target not found")
	ErrUnsupportedStatus = errors.New("unsupported payment status")
	ErrConfiguration     = errors.New("entitlement configuration error")

	// Infrastructure
	ErrOperationFailed    = errors.New("database operation failed")
	ErrReadDatabaseRow    = errors.New("failed to read database row")
	ErrInvalidExecContext = errors.New("invalid execution context")
)

// ErrorKind is the machine-readable classification handed to callers that
// translate failures into user-facing messages.
type ErrorKind string

const (
	KindNone               ErrorKind = ""
	KindNotFound           ErrorKind = "not_found"
	KindInactiveCode       ErrorKind = "inactive_code"
	KindExpiredCode        ErrorKind = "expired_code"
	KindGlobalLimitReached ErrorKind = "global_limit_reached"
	KindActorLimitReached  ErrorKind = "actor_limit_reached"
	KindAlreadyEntitled    ErrorKind = "already_entitled"
	KindAlreadyExists      ErrorKind = "already_exists"
	KindTargetNotFound     ErrorKind = "target_not_found"
	KindConfiguration      ErrorKind = "configuration_error"
	KindInvalidArgument    ErrorKind = "invalid_argument"
	KindUnsupportedStatus  ErrorKind = "unsupported_status"
	KindInternal           ErrorKind = "internal"
)

var kinds = []struct {
	err  error
	kind ErrorKind
}{
	{ErrCodeNotFound, KindNotFound},
	{ErrInactiveCode, KindInactiveCode},
	{ErrExpiredCode, KindExpiredCode},
	{ErrGlobalLimitReached, KindGlobalLimitReached},
	{ErrActorLimitReached, KindActorLimitReached},
	{ErrAlreadyEntitled, KindAlreadyEntitled},
	{ErrTargetNotFound, KindTargetNotFound},
	{ErrConfiguration, KindConfiguration},
	{ErrInvalidArgument, KindInvalidArgument},
	{ErrUnsupportedStatus, KindUnsupportedStatus},
	{ErrNotFound, KindNotFound},
	{ErrAlreadyExists, KindAlreadyExists},
}

// KindOf maps err onto the error taxonomy. Unknown errors are KindInternal.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return KindInternal
}
