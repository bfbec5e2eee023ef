package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalid      = errors.New("invalid")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpired      = errors.New("expired")
	ErrTooMany      = errors.New("too many requests")
	ErrStorage      = errors.New("storage")
	ErrPersistence  = errors.New("persistence")
	ErrUpstream     = errors.New("upstream")
	ErrTimeout      = errors.New("timeout")
	ErrEmptyContent = errors.New("empty content")
	ErrInternal     = errors.New("internal")
)

// Error pairs a sentinel kind with a user-safe message and an optional cause.
// errors.Is matches both the kind and anything in the cause chain.
type Error struct {
	kind   error
	msg    string
	cause  error
	status int
}

func (e *Error) Error() string {
	text := e.msg
	if text == "" {
		text = e.kind.Error()
	}
	if e.cause != nil {
		return text + ": " + e.cause.Error()
	}
	return text
}

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

func New(kind error, msg string) error {
	return &Error{kind: kind, msg: msg}
}

func Wrap(kind error, msg string, cause error) error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

// Upstream builds an ErrUpstream that remembers the status code returned by the remote side.
func Upstream(status int, msg string) error {
	return &Error{kind: ErrUpstream, msg: msg, status: status}
}

// Message returns the text that is safe to show to a client. Causes are never included.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.msg != "" {
		return e.msg
	}
	return ""
}

func UpstreamStatus(err error) (int, bool) {
	var e *Error
	if errors.As(err, &e) && e.status != 0 {
		return e.status, true
	}
	return 0, false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}

func IsExpired(err error) bool {
	return errors.Is(err, ErrExpired)
}
