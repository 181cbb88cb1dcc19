// Package orchestrator wires the decode → normalise → merge → stamp → insert →
// encode pipeline that appends the mandatory field-mapping questions to a user
// supplied XLSForm.
//
// Decode and Encode are the only blocking steps; everything in between is
// synchronous table manipulation exposed separately through AssembleForm so
// it can be exercised without a codec.
package orchestrator
