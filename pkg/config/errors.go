package config

import "errors"

var (
	ErrEmptyPath         = errors.New("config: empty file path")
	ErrUnsupportedFormat = errors.New("config: unsupported file format")
	ErrReadFile          = errors.New("config: failed to read file")
)
