package errors

import "errors"

var (
	ErrMalformedActivity       = errors.New("activity is structurally malformed")
	ErrDomainMismatch          = errors.New("fetched document identity does not match requested uri")
	ErrUnauthorizedActor       = errors.New("actor is not a member of the addressed community")
	ErrRecursionBudgetExceeded = errors.New("resolution fetch budget exceeded")
	ErrUnresolvableReference   = errors.New("referenced document cannot be resolved")
	ErrUnsupportedActivity     = errors.New("no handler registered for activity kind")
	ErrInvalidVoteValue        = errors.New("invalid vote value")
	ErrActorNotFound           = errors.New("actor not found")
	ErrObjectNotFound          = errors.New("object not found")
	ErrCommunityNotFound       = errors.New("community not found")
	ErrActorNotLocal           = errors.New("sending actor is not local to this node")
)
