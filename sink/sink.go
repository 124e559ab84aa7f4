// Package sink defines the output-sink contract operator drivers write into.
// Temp-table storage and its durability are opaque collaborators (spec.md
// §1); this package only describes the shape a concrete sink must expose.
package sink

import "github.com/cockroachdb/idxexec/rowdata"

// Sink is the temp-table handle a driver writes its output rows into. A
// single-row COUNT result is one InsertTempTuple call carrying a one-column
// BIGINT tuple.
type Sink interface {
	// TempTuple returns a fresh scratch tuple matching the sink's declared
	// output schema, the way TempTable::tempTuple() hands the executor a
	// reusable backing row to fill in before inserting.
	TempTuple() rowdata.Tuple
	// InsertTempTuple appends tuple to the sink's output.
	InsertTempTuple(tuple rowdata.Tuple) error
}

// MemSink is a minimal in-memory Sink, used by operator-driver tests in
// place of a real temp-table implementation.
type MemSink struct {
	Rows []rowdata.Tuple
}

var _ Sink = (*MemSink)(nil)

func (s *MemSink) TempTuple() rowdata.Tuple { return rowdata.Tuple{Valid: true} }

func (s *MemSink) InsertTempTuple(tuple rowdata.Tuple) error {
	s.Rows = append(s.Rows, tuple)
	return nil
}
