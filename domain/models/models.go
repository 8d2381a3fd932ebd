package models

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrRaggedColumns   = errors.New("columns have different lengths")
)

type ValueKind int

const (
	Missing ValueKind = iota
	Number
	Text
)

// Value is a single dataset cell. The zero Value is missing.
type Value struct {
	Kind ValueKind
	Num  float64
	Str  string
}

func MissingValue() Value {
	return Value{Kind: Missing}
}

// NumberValue stores f as a number; NaN and infinities become missing.
func NumberValue(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return MissingValue()
	}
	return Value{Kind: Number, Num: f}
}

func TextValue(s string) Value {
	return Value{Kind: Text, Str: s}
}

func (v Value) IsMissing() bool {
	return v.Kind == Missing
}

// Float returns the value as a finite real number. Text is accepted when it
// parses as one.
func (v Value) Float() (float64, bool) {
	switch v.Kind {
	case Number:
		return v.Num, true
	case Text:
		f, err := strconv.ParseFloat(strings.TrimSpace(v.Str), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func (v Value) String() string {
	switch v.Kind {
	case Number:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case Text:
		return v.Str
	}
	return ""
}

type Column struct {
	Name   string
	Values []Value
}

// Dataset is an ordered set of equally long, uniquely named columns.
type Dataset struct {
	Columns []Column
}

// NewDataset validates names and lengths. Zero columns is allowed.
func NewDataset(columns ...Column) (Dataset, error) {
	seen := make(map[string]bool, len(columns))
	for i, c := range columns {
		if seen[c.Name] {
			return Dataset{}, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = true
		if i > 0 && len(c.Values) != len(columns[0].Values) {
			return Dataset{}, fmt.Errorf("%w: %q has %d rows, %q has %d",
				ErrRaggedColumns, c.Name, len(c.Values), columns[0].Name, len(columns[0].Values))
		}
	}
	return Dataset{Columns: columns}, nil
}

// Rows returns the number of rows.
func (d Dataset) Rows() int {
	if len(d.Columns) == 0 {
		return 0
	}
	return len(d.Columns[0].Values)
}

func (d Dataset) Names() []string {
	names := make([]string, len(d.Columns))
	for i, c := range d.Columns {
		names[i] = c.Name
	}
	return names
}

func (d Dataset) Column(name string) (Column, bool) {
	for _, c := range d.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// Row returns row i across all columns.
func (d Dataset) Row(i int) []Value {
	row := make([]Value, len(d.Columns))
	for j, c := range d.Columns {
		row[j] = c.Values[i]
	}
	return row
}
