// Package codec defines how XLSForm workbooks are read from and written to
// byte streams. The default implementation lives in internal/xlsx and is
// exposed through the root package's NewCodec.
package codec

import (
	"context"
	"errors"
	"io"

	"github.com/goliatone/go-fieldmap/pkg/xlsform"
)

// ErrMalformedInput is returned when a byte stream cannot be parsed as a
// workbook.
var ErrMalformedInput = errors.New("codec: malformed input")

// Decoder parses a workbook into a Form. Header cells and literal cell values
// must be preserved.
type Decoder interface {
	Decode(ctx context.Context, r io.Reader) (*xlsform.Form, error)
}

// Encoder serialises a Form, writing sheets in form order, columns in header
// order and rows in table order.
type Encoder interface {
	Encode(ctx context.Context, form *xlsform.Form) ([]byte, error)
}

// Codec reads and writes workbooks.
type Codec interface {
	Decoder
	Encoder
}
