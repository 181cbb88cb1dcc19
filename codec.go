package fieldmap

import (
	"io/fs"

	"github.com/goliatone/go-fieldmap/internal/xlsx"
	"github.com/goliatone/go-fieldmap/pkg/codec"
	"github.com/goliatone/go-fieldmap/pkg/templates"
)

// NewCodec constructs the workbook codec backed by the internal xlsx
// implementation while keeping the concrete type hidden from consumers.
func NewCodec() codec.Codec {
	return xlsx.New()
}

// EmbeddedTemplates exposes the built-in template documents so callers can
// copy or extend them before passing a directory to
// orchestrator.WithTemplatesFS.
func EmbeddedTemplates() fs.FS {
	return templates.EmbeddedFS()
}
