// Package indices contains memdb index definitions for model kinds.
//
// Records of a kind are kept in a memory database indexed for lookup. Index
// definitions are made once and passed to chamber.KindOf:
//
//	var (
//	    indexName   = indices.FieldIndex("Name", indices.IgnoreCase)
//	    indexNumber = indices.UniqueIndex("Number!")
//	)
//
//	var kindCSVRecord = chamber.KindOf(csvRecord{}, indexName, indexNumber)
//
// Each kind has an implicit unique index on the identity field.
//
// Model.FilterBy on a single field uses the index named after that field when
// the kind has one, and scans all records otherwise. Unique indices are
// checked for conflicts by the full clean of a record before it is saved.
//
// # Indexable types
//
// All integer types, strings, booleans, time.Time and named types based on
// them are indexable, as are pointers to those. Any other type becomes
// indexable by implementing
//
//	IndexKey() ([]byte, bool)
//
// which serializes the value into a byte sequence ordered lexicographically.
// The second result reports whether the value is nonempty.
package indices
