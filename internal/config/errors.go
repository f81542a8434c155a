package config

import "errors"

// ErrNotFound indicates the config file does not exist.
var ErrNotFound = errors.New("config file not found")

// ErrInvalid indicates the config failed validation.
var ErrInvalid = errors.New("invalid config")
