// Package fieldmap appends the mandatory field-mapping questions, choices,
// entity and settings sheets to user supplied XLSForms.
package fieldmap

import (
	"context"
	"io"

	"github.com/goliatone/go-fieldmap/pkg/orchestrator"
)

// Metadata aliases orchestrator.Metadata so callers can describe a form
// without importing the orchestrator package.
type Metadata = orchestrator.Metadata

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// AppendMandatoryFields reads the workbook from form, merges the mandatory
// content for category and returns the generated form identifier with the
// serialised workbook. It is the simplest entry point for callers that only
// need a category.
func AppendMandatoryFields(ctx context.Context, form io.Reader, category string, options ...orchestrator.Option) (string, []byte, error) {
	return AppendMandatoryFieldsWithMetadata(ctx, form, Metadata{Category: category}, options...)
}

// AppendMandatoryFieldsWithMetadata is AppendMandatoryFields with full control
// over additional entities, identifier reuse and task lists.
func AppendMandatoryFieldsWithMetadata(ctx context.Context, form io.Reader, meta Metadata, options ...orchestrator.Option) (string, []byte, error) {
	gen := orchestrator.New(options...)
	result, err := gen.Assemble(ctx, orchestrator.Request{
		Form:     form,
		Metadata: meta,
	})
	if err != nil {
		return "", nil, err
	}
	return result.FormID, result.Data, nil
}
