package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownSource matches any *UnknownSourceError via errors.Is.
	ErrUnknownSource = errors.New("unknown source")

	// ErrInsufficientData matches any *InsufficientDataError via errors.Is.
	ErrInsufficientData = errors.New("insufficient data")
)

// UnknownSourceError reports a source label outside {inland, offshore}.
type UnknownSourceError struct {
	Value string
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source %q: want inland or offshore", e.Value)
}

func (e *UnknownSourceError) Is(target error) bool { return target == ErrUnknownSource }

// InsufficientDataError reports a partition with no usable values for a field.
type InsufficientDataError struct {
	Source Source
	Field  Field
	Count  int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data for %s/%s: %d values", e.Source, e.Field, e.Count)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// RowError describes a rejected input row.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.File, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
