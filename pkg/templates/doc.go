// Package templates supplies the canonical tables merged into every form: the
// mandatory survey rows, the meta defaults, the digitisation questions, their
// choice lists, and the fixed entities and settings sheets.
//
// The tables are plain data. The defaults ship embedded as YAML documents;
// LoadFS reads the same layout from any filesystem so deployments can swap the
// content without touching the merge pipeline.
package templates
