package config

import "errors"

// Sentinel errors for config loading. Callers match with errors.Is; the
// wrapped message carries the offending path or field.
var (
	ErrFileDoesNotExist  = errors.New("config file does not exist")
	ErrReadConfigFail    = errors.New("failed to read config file")
	ErrConfigParsingFail = errors.New("failed to parse config file")
	ErrInvalidConfig     = errors.New("Invalid config file")
)
