package analysis

import (
	"math"
	"sort"
)

// ValueCount is a value together with the number of times it occurs.
type ValueCount struct {
	Value string
	Count int
}

// TopValues returns up to n of the most frequent present values of c, most
// frequent first. Ties keep the order of first appearance. n <= 0 returns all.
func TopValues(c *Column, n int) []ValueCount {
	index := make(map[string]int)
	var counts []ValueCount
	for _, v := range c.Values() {
		i, ok := index[v]
		if !ok {
			i = len(counts)
			index[v] = i
			counts = append(counts, ValueCount{Value: v})
		}
		counts[i].Count++
	}
	sort.SliceStable(counts, func(i, j int) bool { return counts[i].Count > counts[j].Count })
	if n > 0 && len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

// moments holds running statistics computed with Welford's algorithm.
type moments struct {
	n        int
	mean, m2 float64
	min, max float64
}

func computeMoments(xs []float64) moments {
	m := moments{min: math.Inf(1), max: math.Inf(-1)}
	for _, x := range xs {
		m.n++
		if x < m.min {
			m.min = x
		}
		if x > m.max {
			m.max = x
		}
		delta := x - m.mean
		m.mean += delta / float64(m.n)
		m.m2 += delta * (x - m.mean)
	}
	return m
}

// std is the sample standard deviation, NaN for fewer than two values.
func (m moments) std() float64 {
	if m.n < 2 {
		return math.NaN()
	}
	return math.Sqrt(m.m2 / float64(m.n-1))
}

// quantile returns the p-quantile of sorted using linear interpolation
// between closest ranks.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Bin is one histogram bucket. The last bin includes its upper edge.
type Bin struct {
	Lower, Upper float64
	Count        int
}

// DefaultBins is the number of histogram buckets used for charts.
const DefaultBins = 10

// Histogram splits xs into equal-width bins. A zero-width range is widened by
// 0.5 on each side. Ranges wider than the largest float64 still get finite
// bin edges.
func Histogram(xs []float64, bins int) []Bin {
	if len(xs) == 0 || bins <= 0 {
		return nil
	}
	m := computeMoments(xs)
	lo, hi := m.min, m.max
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	n := float64(bins)
	width := (hi - lo) / n
	if math.IsInf(width, 0) {
		width = hi/n - lo/n
	}

	out := make([]Bin, bins)
	for i := range out {
		out[i].Lower = lo + float64(i)*width
		out[i].Upper = lo + float64(i+1)*width
	}
	out[bins-1].Upper = hi

	for _, x := range xs {
		offset := (x - lo) / width
		if math.IsInf(offset, 0) {
			offset = x/width - lo/width
		}
		i := min(max(int(offset), 0), bins-1)
		out[i].Count++
	}
	return out
}
