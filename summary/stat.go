package summary

import (
	"encoding/json"
	"math"
	"strconv"
)

// Stat is a statistic value. NaN marks a statistic that is undefined for the
// input (too few values, zero variance, disjoint missing rows). Callers must
// check Defined before treating it as a number; it is never coerced to 0.
type Stat float64

const notAvailable = "N/A"

func Undefined() Stat {
	return Stat(math.NaN())
}

// Of wraps f, mapping NaN and infinities to Undefined.
func Of(f float64) Stat {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Undefined()
	}
	return Stat(f)
}

func (s Stat) Defined() bool {
	f := float64(s)
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func (s Stat) Float() float64 {
	return float64(s)
}

func (s Stat) String() string {
	if !s.Defined() {
		return notAvailable
	}
	return strconv.FormatFloat(float64(s), 'f', -1, 64)
}

// Format renders s with prec decimals, or N/A.
func (s Stat) Format(prec int) string {
	if !s.Defined() {
		return notAvailable
	}
	return strconv.FormatFloat(float64(s), 'f', prec, 64)
}

func (s Stat) MarshalJSON() ([]byte, error) {
	if !s.Defined() {
		return []byte("null"), nil
	}
	return json.Marshal(float64(s))
}

func (s *Stat) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*s = Undefined()
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*s = Of(f)
	return nil
}
