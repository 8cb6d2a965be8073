/*
normalize.go - Canonicalization of raw field values

PURPOSE:
  Applies the per-field-type normalization contract to raw tables. The two
  record batches (module completions, closed-won sales) and the reference
  tables (module fees, commission schemes) arrive as free text from several
  upstream systems; this is where their spellings are forced onto a single
  canonical form so joins and lookups behave.

THE CONTRACT:
  string:      uppercase; hyphens -> space; " & " -> " AND "; bare & -> AND;
               strip non-ASCII; collapse whitespace runs; trim
  id:          uppercase; remove ALL whitespace; strip non-ASCII; trim
  float:       strip everything but digits and '.'; parse decimal; null on
               failure
  percentage:  as float, but a % glyph in the original text divides the
               parsed value by 100 (schemes are authored either as fractions
               or as percentages - the glyph disambiguates)
  datetime:    lenient multi-layout parse; null on failure

PROPERTIES:
  - Deterministic and side-effect free
  - Idempotent: normalizing an already-normalized value is a no-op
  - Never errors: unparsable cells become null Values; row disposal is the
    caller's decision
*/
package engine

import (
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	nonNumeric    = regexp.MustCompile(`[^\d.]`)
)

// dateLayouts are tried in order. Day-first layouts come before month-first
// since the source systems are predominantly day-first; ISO wins outright.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-Jan-2006",
	"2-Jan-2006",
	"2 Jan 2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// =============================================================================
// PER-TYPE NORMALIZERS
// =============================================================================

// NormalizeString canonicalizes free text: uppercase, hyphens to spaces,
// ampersands spelled out, non-ASCII stripped, whitespace collapsed.
func NormalizeString(s string) string {
	s = strings.ToUpper(s)
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, " & ", " AND ")
	s = strings.ReplaceAll(s, "&", "AND")
	s = stripNonASCII(s)
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeID canonicalizes identity document numbers: uppercase with every
// whitespace character removed. IDs join the two batches, so the slightest
// spacing difference would silently orphan records.
func NormalizeID(s string) string {
	s = strings.ToUpper(s)
	s = stripNonASCII(s)
	return whitespaceRun.ReplaceAllString(s, "")
}

// ParseNumber strips every character that is not a digit or '.' and parses
// the remainder as a decimal. ok is false when nothing parsable remains.
func ParseNumber(s string) (decimal.Decimal, bool) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" || cleaned == "." {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// ParsePercentage parses like ParseNumber, but a % glyph in the original
// text means the value was authored on the 0-100 scale and is divided down
// to a fraction.
func ParsePercentage(s string) (decimal.Decimal, bool) {
	d, ok := ParseNumber(s)
	if !ok {
		return decimal.Zero, false
	}
	if strings.Contains(s, "%") {
		d = d.Div(decimal.NewFromInt(100))
	}
	return d, true
}

// ParseDate tries each known layout and returns the first match, truncated
// to day granularity in UTC. ok is false when no layout fits.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

func stripNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// =============================================================================
// TABLE NORMALIZATION
// =============================================================================

// NormalizeCell coerces a single raw cell to its declared field type.
func NormalizeCell(raw string, ft FieldType) Value {
	switch ft {
	case FieldString:
		return StringValue(FieldString, NormalizeString(raw))
	case FieldID:
		return StringValue(FieldID, NormalizeID(raw))
	case FieldFloat:
		d, ok := ParseNumber(raw)
		if !ok {
			return NullValue(FieldFloat)
		}
		return NumberValue(FieldFloat, d)
	case FieldPercentage:
		d, ok := ParsePercentage(raw)
		if !ok {
			return NullValue(FieldPercentage)
		}
		return NumberValue(FieldPercentage, d)
	case FieldDateTime:
		t, ok := ParseDate(raw)
		if !ok {
			return NullValue(FieldDateTime)
		}
		return TimeValue(t)
	default:
		return StringValue(ft, raw)
	}
}

// Normalize applies the schema to a raw table and returns a new normalized
// table retaining only schema columns, in the raw table's column order.
// It never drops rows: cells that fail coercion become null Values and the
// caller decides which nulls make a row ineligible.
func Normalize(raw RawTable, schema Schema) Table {
	columns := make([]string, 0, len(schema))
	for _, c := range raw.Columns {
		if _, ok := schema[c]; ok {
			columns = append(columns, c)
		}
	}

	rows := make([]map[string]Value, 0, len(raw.Rows))
	for _, r := range raw.Rows {
		row := make(map[string]Value, len(columns))
		for _, c := range columns {
			row[c] = NormalizeCell(r[c], schema[c])
		}
		rows = append(rows, row)
	}

	return Table{Columns: columns, Rows: rows}
}
