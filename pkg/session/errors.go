package session

import "errors"

var (
	ErrNotFound      = errors.New("session: not found")
	ErrTypeMismatch  = errors.New("session: type mismatch")
	ErrClosed        = errors.New("session: store closed")
	ErrEncode        = errors.New("session: failed to encode")
	ErrDecode        = errors.New("session: failed to decode")
	ErrEmptyURL      = errors.New("session: empty connection URL")
	ErrInvalidURL    = errors.New("session: invalid connection URL")
	ErrConnection    = errors.New("session: failed to establish connection")
	ErrMigrate       = errors.New("session: failed to apply migrations")
	ErrStoreNotReady = errors.New("session: store healthcheck failed")
)
