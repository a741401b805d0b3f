package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidRequest   = errors.New("invalid request")
)

// UnsupportedFormatError reports a format tag outside the closed set.
type UnsupportedFormatError struct {
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format %q", e.Format)
}

// UnsupportedTypeError reports a document type outside the closed set.
type UnsupportedTypeError struct {
	Type string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("unsupported document type %q", e.Type)
}
