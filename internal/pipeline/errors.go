package pipeline

import (
	"context"
	"fmt"
)

// Reason identifies which validation rule rejected a record.
type Reason int

const (
	ReasonIncorrectColumnCount Reason = iota + 1
	ReasonInvalidID
	ReasonInvalidDate
	ReasonEmptyPayee
	ReasonInvalidAmount
	ReasonAmountOutOfRange
	ReasonEmptyCurrency
)

var reasonNames = map[Reason]string{
	ReasonIncorrectColumnCount: "IncorrectColumnCount",
	ReasonInvalidID:            "InvalidId",
	ReasonInvalidDate:          "InvalidDate",
	ReasonEmptyPayee:           "EmptyPayee",
	ReasonInvalidAmount:        "InvalidAmount",
	ReasonAmountOutOfRange:     "AmountOutOfRange",
	ReasonEmptyCurrency:        "EmptyCurrency",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// MalformedRecordError is returned by ParseRecord when a line fails validation.
type MalformedRecordError struct {
	Reason Reason
}

func (e *MalformedRecordError) Error() string {
	return "malformed record: " + e.Reason.String()
}

// DuplicateKeyError describes a record rejected because its id is already stored.
type DuplicateKeyError struct {
	ID int
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate id %d", e.ID)
}

// UnreadableFileError wraps an I/O failure while opening or reading an import file.
type UnreadableFileError struct {
	Path string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("unreadable file %s: %v", e.Path, e.Err)
}

func (e *UnreadableFileError) Unwrap() error {
	return e.Err
}

// Cancellation scopes.
const (
	ScopeFile = "file"
	ScopeRun  = "run"
)

// CancelledError reports a cooperative stop. It matches context.Canceled
// (or the ctx cause it was built from) under errors.Is.
type CancelledError struct {
	Scope string
	Path  string
	Err   error
}

func (e *CancelledError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("import cancelled (%s %s)", e.Scope, e.Path)
	}
	return fmt.Sprintf("import cancelled (%s)", e.Scope)
}

func (e *CancelledError) Unwrap() error {
	if e.Err == nil {
		return context.Canceled
	}
	return e.Err
}
