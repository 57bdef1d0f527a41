package api

import "errors"

var (
	errMissingFireAt  = errors.New("either fire_at or fire_at_local is required")
	errBadFireAt      = errors.New("fire_at must be an RFC 3339 timestamp")
	errBadFireAtLocal = errors.New(`fire_at_local must look like "2006-01-02 15:04[:05]"`)
)
