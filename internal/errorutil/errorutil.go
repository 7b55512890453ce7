package errorutil

import "errors"

// ErrDataIntegrity is a base error type to use for failures that are due to
// unrecoverable data integrity issues, such as a malformed pairs file.
var ErrDataIntegrity = errors.New("data integrity error")

// ErrNoResults represents situations in which there was nothing to work with,
// e.g. merging an empty list of reports.
var ErrNoResults = errors.New("no results returned")
