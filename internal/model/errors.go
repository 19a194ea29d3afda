package model

import "errors"

// Error taxonomy for the pipeline. Per-item errors (malformed record, judge
// failure, corrupt output line) are counted and recovered locally; only
// ErrConfiguration and unrecoverable I/O terminate a run.
var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrJudge           = errors.New("judge failure")
	ErrCorruptOutput   = errors.New("corrupt output line")
	ErrConfiguration   = errors.New("invalid configuration")
)
