package ingest

import "errors"

// File-level rejection causes. Row-level failures wrap these with file name
// and row number context.
var (
	// ErrNoHeader is returned when a file has no header row.
	ErrNoHeader = errors.New("no headers found")

	// ErrUnknownFormat is returned when the header set matches none of the
	// three known schemas.
	ErrUnknownFormat = errors.New("unknown format")
)
