// Package reader decodes raw tool output into a generic tree of maps,
// slices and scalars. It has no knowledge of the tools that produced it.
package reader

import (
	"errors"
	"fmt"
)

// Format is the declared encoding of an uploaded payload.
type Format string

const (
	StructuredRecord Format = "structured-record"
	DelimitedTable   Format = "delimited-table"
	MarkupTree       Format = "markup-tree"
	LineList         Format = "line-list"
)

func (f Format) IsValid() bool {
	switch f {
	case StructuredRecord, DelimitedTable, MarkupTree, LineList:
		return true
	}
	return false
}

// ErrorKind classifies read failures.
type ErrorKind string

const (
	Malformed         ErrorKind = "malformed"
	UnsupportedFormat ErrorKind = "unsupported_format"
)

// ErrMalformed matches any ReadError of kind Malformed via errors.Is.
var ErrMalformed = errors.New("malformed input")

// ReadError reports why a payload could not be decoded.
type ReadError struct {
	Kind   ErrorKind
	Format Format
	Detail string
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read %s: %s: %s", e.Format, e.Kind, e.Detail)
}

func (e *ReadError) Is(target error) bool {
	return target == ErrMalformed && e.Kind == Malformed
}

func malformed(format Format, err error) *ReadError {
	return &ReadError{Kind: Malformed, Format: format, Detail: err.Error()}
}

// Read decodes data according to format. On failure it returns a *ReadError
// and no partial result.
//
// The parsed value is built from map[string]any, []any, string, float64,
// bool and nil.
func Read(data []byte, format Format) (any, error) {
	switch format {
	case StructuredRecord:
		return readJSON(data)
	case DelimitedTable:
		return readCSV(data)
	case MarkupTree:
		return readXML(data)
	case LineList:
		return readLines(data)
	default:
		return nil, &ReadError{Kind: UnsupportedFormat, Format: format, Detail: "unknown format"}
	}
}
