/*
Package engine provides the generic tabular plumbing for the commission
calculation pipeline.

PURPOSE:
  This package contains domain-agnostic types and algorithms for working
  with already-parsed tabular batches: raw string tables, per-column field
  type contracts, value normalization, and reporting windows. The
  commission package builds its domain records on top of these primitives.

KEY CONCEPTS IN THIS FILE (table.go):
  - RawTable: An ordered-column table of raw string cells, as handed over
    by the CSV-parsing collaborator
  - Schema: Declares the field type of each retained column
  - Value: A normalized cell - typed, and possibly null
  - Table: A normalized table produced by Normalize

DESIGN PRINCIPLES:
  1. Immutability: Normalize returns a new table; inputs are never mutated
  2. Precision: Numeric cells use decimal.Decimal, never float64
  3. Null over panic: Unparsable cells become invalid Values, not errors

SEE ALSO:
  - normalize.go: The per-field-type normalization contract
  - window.go: Reporting windows (academic quarters)
*/
package engine

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FIELD TYPES - The per-column normalization contract
// =============================================================================

type FieldType string

const (
	FieldString     FieldType = "string"     // Free text (names, course titles)
	FieldID         FieldType = "id"         // Identity document numbers
	FieldFloat      FieldType = "float"      // Currency and plain numerics
	FieldPercentage FieldType = "percentage" // Numerics where a % glyph means /100
	FieldDateTime   FieldType = "datetime"   // Leniently parsed dates
)

// Schema maps a column name to the field type its cells must be coerced to.
// Columns absent from the schema are dropped during normalization; the raw
// batches carry more columns than the engine retains.
type Schema map[string]FieldType

// =============================================================================
// RAW TABLE - Input shape from the parsing collaborator
// =============================================================================

// Row is one raw record: column name to raw cell text.
type Row map[string]string

// RawTable is an already-parsed tabular batch. Columns preserves the source
// order so normalized output stays stable for display and persistence.
type RawTable struct {
	Columns []string
	Rows    []Row
}

// HasColumn reports whether the table carries the named column.
func (t RawTable) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// RequireColumns returns a MissingColumnError for the first schema column
// the table does not carry. A structurally incomplete batch is a terminal
// condition for the run, unlike a bad cell.
func (t RawTable) RequireColumns(schema Schema) error {
	for name := range schema {
		if !t.HasColumn(name) {
			return &MissingColumnError{Column: name, Found: t.Columns}
		}
	}
	return nil
}

// =============================================================================
// VALUE - A normalized, possibly-null cell
// =============================================================================

// Value is a normalized cell. Valid is false when the raw text could not be
// coerced to the declared field type; downstream computations that depend on
// the cell must then skip the row.
type Value struct {
	Kind  FieldType
	Valid bool

	Str  string          // string, id
	Num  decimal.Decimal // float, percentage
	Time time.Time       // datetime (UTC, day granularity)
}

// StringValue wraps normalized text.
func StringValue(kind FieldType, s string) Value {
	return Value{Kind: kind, Valid: true, Str: s}
}

// NumberValue wraps a parsed numeric.
func NumberValue(kind FieldType, d decimal.Decimal) Value {
	return Value{Kind: kind, Valid: true, Num: d}
}

// TimeValue wraps a parsed date.
func TimeValue(t time.Time) Value {
	return Value{Kind: FieldDateTime, Valid: true, Time: t}
}

// NullValue marks a cell that failed coercion.
func NullValue(kind FieldType) Value {
	return Value{Kind: kind}
}

// =============================================================================
// TABLE - Normalized output
// =============================================================================

// Table is the result of normalizing a RawTable against a Schema. Only
// schema columns are retained.
type Table struct {
	Columns []string
	Rows    []map[string]Value
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }
