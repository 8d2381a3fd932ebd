package models

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDataset(t *testing.T) {
	d, err := NewDataset(
		Column{Name: "a", Values: []Value{NumberValue(1), NumberValue(2)}},
		Column{Name: "b", Values: []Value{TextValue("x"), MissingValue()}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, d.Rows())
	assert.Equal(t, []string{"a", "b"}, d.Names())
	assert.Equal(t, []Value{NumberValue(2), MissingValue()}, d.Row(1))

	_, err = NewDataset(Column{Name: "a"}, Column{Name: "a"})
	assert.ErrorIs(t, err, ErrDuplicateColumn)

	_, err = NewDataset(
		Column{Name: "a", Values: []Value{NumberValue(1)}},
		Column{Name: "b"},
	)
	assert.ErrorIs(t, err, ErrRaggedColumns)

	empty, err := NewDataset()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.Rows())
}

func TestValueFloat(t *testing.T) {
	tests := []struct {
		name string
		v    Value
		want float64
		ok   bool
	}{
		{"number", NumberValue(2.5), 2.5, true},
		{"numeric text", TextValue(" 10 "), 10, true},
		{"text", TextValue("abc"), 0, false},
		{"nan text", TextValue("NaN"), 0, false},
		{"missing", MissingValue(), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.v.Float()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNumberValueRejectsNonFinite(t *testing.T) {
	assert.True(t, NumberValue(math.NaN()).IsMissing())
	assert.True(t, NumberValue(math.Inf(1)).IsMissing())
	assert.Equal(t, "12.5", NumberValue(12.5).String())
}
