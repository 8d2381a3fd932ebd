package plot

import "math"

// DefaultBins matches the bucket count of ClickHouse histogram(20).
const DefaultBins = 20

type Bin struct {
	Start float64 `json:"start"`
	End   float64 `json:"end"`
	Count int     `json:"count"`
}

func (b Bin) Label() string {
	return formatBound(b.Start) + "-" + formatBound(b.End)
}

// Bins splits values into n equal-width buckets over [min, max]. The last
// bucket is closed so max is counted. A column without spread yields a
// single bucket. Bounds are computed on halved values so ranges near the
// float64 limits do not overflow.
func Bins(values []float64, n int) []Bin {
	if len(values) == 0 {
		return nil
	}
	if n <= 0 {
		n = DefaultBins
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo == hi {
		return []Bin{{Start: lo, End: hi, Count: len(values)}}
	}

	halfSpan := hi/2 - lo/2
	halfWidth := halfSpan / float64(n)
	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Start = 2 * (lo/2 + float64(i)*halfWidth)
		bins[i].End = 2 * (lo/2 + float64(i+1)*halfWidth)
	}
	bins[0].Start = lo
	bins[n-1].End = hi
	for _, v := range values {
		bins[binIndex((v/2-lo/2)/halfSpan, n)].Count++
	}
	return bins
}

// binIndex maps a position in [0, 1] to a bucket in [0, n-1].
func binIndex(pos float64, n int) int {
	if math.IsNaN(pos) || pos >= 1 {
		return n - 1
	}
	if pos <= 0 {
		return 0
	}
	i := int(pos * float64(n))
	if i >= n {
		return n - 1
	}
	return i
}
