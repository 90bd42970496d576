// Package dataset loads the Aadhaar CSV and Excel drops into immutable
// columnar tables. A Loader discovers files per data kind, parses them on a
// bounded worker pool, merges and cleans the rows and caches the result by
// directory path. Pipelines read whole columns and derive filtered index
// views; they never mutate a returned Dataset.
package dataset

import (
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ColumnType is the storage type of one dataset column.
type ColumnType int

const (
	TypeString ColumnType = iota
	TypeInt
	TypeFloat
	TypeTime
)

// Column is one named, homogeneously typed column. Exactly one of the value
// slices is populated, matching Type.
type Column struct {
	Name string
	Type ColumnType

	strs   []string
	ints   []int64
	floats []float64
	times  []time.Time
}

// Len returns the number of values in the column.
func (c Column) Len() int {
	switch c.Type {
	case TypeInt:
		return len(c.ints)
	case TypeFloat:
		return len(c.floats)
	case TypeTime:
		return len(c.times)
	default:
		return len(c.strs)
	}
}

// Dataset is an ordered collection of equal-length columns, unique by name.
type Dataset struct {
	columns []Column
	index   map[string]int
	rows    int
}

// Empty returns a dataset with no columns and no rows.
func Empty() *Dataset {
	return &Dataset{index: make(map[string]int)}
}

// Rows returns the row count.
func (d *Dataset) Rows() int {
	if d == nil {
		return 0
	}
	return d.rows
}

// IsEmpty reports whether the dataset holds no rows.
func (d *Dataset) IsEmpty() bool {
	return d.Rows() == 0
}

// Columns returns the column names in order.
func (d *Dataset) Columns() []string {
	if d == nil {
		return nil
	}
	names := make([]string, len(d.columns))
	for i, c := range d.columns {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether a column with the given name exists.
func (d *Dataset) HasColumn(name string) bool {
	if d == nil {
		return false
	}
	_, ok := d.index[name]
	return ok
}

// Strings returns the values of a string column. The returned slice is
// shared; callers must not modify it.
func (d *Dataset) Strings(name string) ([]string, bool) {
	c, ok := d.column(name, TypeString)
	if !ok {
		return nil, false
	}
	return c.strs, true
}

// Ints returns the values of an integer column.
func (d *Dataset) Ints(name string) ([]int64, bool) {
	c, ok := d.column(name, TypeInt)
	if !ok {
		return nil, false
	}
	return c.ints, true
}

// Floats returns the values of a float column.
func (d *Dataset) Floats(name string) ([]float64, bool) {
	c, ok := d.column(name, TypeFloat)
	if !ok {
		return nil, false
	}
	return c.floats, true
}

// Times returns the values of a date column. Unparseable cells hold the
// zero time.
func (d *Dataset) Times(name string) ([]time.Time, bool) {
	c, ok := d.column(name, TypeTime)
	if !ok {
		return nil, false
	}
	return c.times, true
}

// DistinctCount returns the number of distinct values in a string column,
// or 0 when the column is absent.
func (d *Dataset) DistinctCount(name string) int {
	values, ok := d.Strings(name)
	if !ok {
		return 0
	}
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func (d *Dataset) column(name string, want ColumnType) (Column, bool) {
	if d == nil {
		return Column{}, false
	}
	i, ok := d.index[name]
	if !ok || d.columns[i].Type != want {
		return Column{}, false
	}
	return d.columns[i], true
}

// FromRecords builds a cleaned dataset from a raw header and rows, applying
// the same post-merge treatment as the loader: exact-duplicate removal,
// trim and title-case of region and gender columns, missing-value fill
// (numeric to 0, Gender to "Unknown") and per-column typing.
func FromRecords(header []string, rows [][]string) *Dataset {
	d, _ := fromRecords(header, rows)
	return d
}

// TitleCase normalizes a free-form value the same way the loader normalizes
// region and gender columns, so request parameters compare equal against
// loaded rows.
func TitleCase(value string) string {
	return cases.Title(language.English).String(strings.ToLower(strings.TrimSpace(value)))
}

// Region and gender columns are normalized to title case so values compare
// equal across files with mixed capitalisation. Update_Type is deliberately
// excluded: titling would mangle codes such as "DOB".
var titleCased = map[string]bool{
	"State":             true,
	"District":          true,
	"Gender":            true,
	"Previous_State":    true,
	"Previous_District": true,
}

func fromRecords(header []string, rows [][]string) (*Dataset, int) {
	names := canonicalHeader(header)
	if len(names) == 0 {
		return Empty(), 0
	}

	// Pad ragged rows before deduplication so equality is positional.
	padded := make([][]string, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	dropped := 0
	for _, row := range rows {
		r := make([]string, len(names))
		copy(r, row)
		key := strings.Join(r, "\x1f")
		if _, dup := seen[key]; dup {
			dropped++
			continue
		}
		seen[key] = struct{}{}
		padded = append(padded, r)
	}

	titler := cases.Title(language.English)
	columns := make([]Column, len(names))
	index := make(map[string]int, len(names))

	for i, name := range names {
		col := Column{Name: name, Type: columnTypeFor(name)}
		switch col.Type {
		case TypeInt:
			col.ints = make([]int64, len(padded))
			for r, row := range padded {
				col.ints[r] = int64(cast.ToFloat64(strings.TrimSpace(row[i])))
			}
		case TypeFloat:
			col.floats = make([]float64, len(padded))
			for r, row := range padded {
				col.floats[r] = cast.ToFloat64(strings.TrimSpace(row[i]))
			}
		case TypeTime:
			col.times = make([]time.Time, len(padded))
			for r, row := range padded {
				col.times[r] = parseDate(strings.TrimSpace(row[i]))
			}
		default:
			col.strs = make([]string, len(padded))
			for r, row := range padded {
				v := strings.TrimSpace(row[i])
				if titleCased[name] {
					v = titler.String(strings.ToLower(v))
				}
				if name == "Gender" && v == "" {
					v = "Unknown"
				}
				col.strs[r] = v
			}
		}
		columns[i] = col
		index[name] = i
	}

	return &Dataset{columns: columns, index: index, rows: len(padded)}, dropped
}

// canonicalHeader trims header cells and replaces inner spaces with
// underscores, so "Update Type" and "Update_Type" name the same column.
func canonicalHeader(header []string) []string {
	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.ReplaceAll(strings.TrimSpace(h), " ", "_")
	}
	return names
}

func columnTypeFor(name string) ColumnType {
	// Match "Date" and "_date"-suffixed names only; a substring check would
	// also catch Update_Type.
	lower := strings.ToLower(name)
	switch {
	case lower == "date" || strings.HasSuffix(lower, "_date"):
		return TypeTime
	case name == "Age":
		return TypeInt
	default:
		return TypeString
	}
}

// Date layouts accepted during load, tried in order. Day-first forms follow
// the Indian convention used in the source files.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02-01-2006",
	"02/01/2006",
}

func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
