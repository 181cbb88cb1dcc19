package xlsform

import "errors"

var (
	// ErrMissingSheet signals that a sheet the form requires is absent.
	ErrMissingSheet = errors.New("xlsform: required sheet missing")
	// ErrAnchorNotFound is returned when a row used as an insertion anchor does
	// not exist in the target table.
	ErrAnchorNotFound = errors.New("xlsform: anchor row not found")
	// ErrDuplicateName is returned when two survey rows would share a name,
	// either among user rows or through a generated row.
	ErrDuplicateName = errors.New("xlsform: duplicate field name")
	// ErrMissingColumn signals that a sheet with rows lacks a column its
	// structure depends on.
	ErrMissingColumn = errors.New("xlsform: required column missing")
)
