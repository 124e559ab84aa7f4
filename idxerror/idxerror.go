// Package idxerror is the error taxonomy the operator drivers raise.
// RangeResolutionEarlyEmpty is deliberately not modeled here: it is a
// recoverable outcome carried as a plain bool on rangeresolve's resolution
// types, not an error value, since it never terminates a driver invocation
// abnormally.
package idxerror

import (
	"github.com/cockroachdb/errors"

	"github.com/cockroachdb/idxexec/planspec"
)

// InvalidIndexError means the plan node's named index does not exist on the
// target table. Fatal for the operator invocation.
type InvalidIndexError struct {
	Index planspec.IndexRef
}

func (e *InvalidIndexError) Error() string {
	return errors.Newf("index not found: %s", e.Index.DebugString()).Error()
}

// NewInvalidIndex builds an InvalidIndexError with a stack trace attached.
func NewInvalidIndex(index planspec.IndexRef) error {
	return errors.WithStack(&InvalidIndexError{Index: index})
}

// IsInvalidIndex reports whether err is (or wraps) an InvalidIndexError.
func IsInvalidIndex(err error) bool {
	return errors.HasType(err, (*InvalidIndexError)(nil))
}

// KeyEvaluationError wraps an evaluator failure unrelated to the three
// known boundary conditions (overflow/underflow/truncation) that
// idxkey.Marshaller classifies into non-error outcomes. It is always a
// wrapped cause; propagated verbatim up to the driver's caller.
type KeyEvaluationError struct {
	Index planspec.IndexRef
	Cause error
}

func (e *KeyEvaluationError) Error() string {
	return errors.Wrapf(e.Cause, "evaluating key expression for %s", e.Index.DebugString()).Error()
}

func (e *KeyEvaluationError) Unwrap() error { return e.Cause }

// NewKeyEvaluation wraps cause as a KeyEvaluationError for index.
func NewKeyEvaluation(index planspec.IndexRef, cause error) error {
	if cause == nil {
		return nil
	}
	return &KeyEvaluationError{Index: index, Cause: cause}
}

// IsKeyEvaluation reports whether err is (or wraps) a KeyEvaluationError.
func IsKeyEvaluation(err error) bool {
	return errors.HasType(err, (*KeyEvaluationError)(nil))
}

// UnsupportedLookupTypeError means the plan node named a compare op the
// driver does not recognize at execute time, or combined EQ with a
// search-key count that does not match the key-column or end-key count.
// Fatal; the planner is expected to avoid producing this shape.
type UnsupportedLookupTypeError struct {
	Index planspec.IndexRef
	Op    planspec.CompareOp
}

func (e *UnsupportedLookupTypeError) Error() string {
	return errors.Newf("unsupported lookup type %s for %s", e.Op, e.Index.DebugString()).Error()
}

// NewUnsupportedLookupType builds an UnsupportedLookupTypeError.
func NewUnsupportedLookupType(index planspec.IndexRef, op planspec.CompareOp) error {
	return errors.WithStack(&UnsupportedLookupTypeError{Index: index, Op: op})
}

// IsUnsupportedLookupType reports whether err is (or wraps) an
// UnsupportedLookupTypeError.
func IsUnsupportedLookupType(err error) bool {
	return errors.HasType(err, (*UnsupportedLookupTypeError)(nil))
}

// EngineError wraps any error returned by the cursor, sink, or an inlined
// sub-executor (aggregate, projection) during driver execution.
type EngineError struct {
	Op    string
	Cause error
}

func (e *EngineError) Error() string {
	return errors.Wrapf(e.Cause, "%s", e.Op).Error()
}

func (e *EngineError) Unwrap() error { return e.Cause }

// NewEngine wraps cause as an EngineError, tagging it with the operation
// that produced it (e.g. "cursor.Next", "sink.InsertTempTuple").
func NewEngine(op string, cause error) error {
	if cause == nil {
		return nil
	}
	return &EngineError{Op: op, Cause: cause}
}

// IsEngine reports whether err is (or wraps) an EngineError.
func IsEngine(err error) bool {
	return errors.HasType(err, (*EngineError)(nil))
}
