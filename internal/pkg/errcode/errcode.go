package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrUnauthorized
	ErrForbidden
	ErrNotFound
	ErrInvalid
	ErrExpired
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrUploadFailed
	ErrPersistFailed
	ErrUpstream
	ErrTimeout
	ErrEmptyContent
)
