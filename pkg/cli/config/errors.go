package config

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for configuration validation
var (
	ErrConfigNotFound    = goerr.New("configuration file not found")
	ErrInvalidConfig     = goerr.New("invalid configuration")
	ErrDuplicateLookupID = goerr.New("duplicate lookup ID")
	ErrInvalidLookupID   = goerr.New("invalid lookup ID format")
	ErrMissingName       = goerr.New("name is required")
)

// Context keys for error values
const (
	ConfigPathKey = "config_path"
	LookupIDKey   = "lookup_id"
	LookupKindKey = "lookup_kind"
)
