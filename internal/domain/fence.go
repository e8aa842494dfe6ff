package domain

import (
	"fmt"
	"log/slog"
	"math"
	"slices"
)

// tukeyK is the fence multiplier applied to the interquartile range.
const tukeyK = 1.5

// Fences holds the Tukey bounds for one field of one partition.
type Fences struct {
	Q1    float64 `json:"q1"`
	Q3    float64 `json:"q3"`
	IQR   float64 `json:"iqr"`
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// Contains reports whether v lies within [Lower, Upper].
func (f Fences) Contains(v float64) bool {
	return v >= f.Lower && v <= f.Upper
}

// FenceSet holds fences per source and field.
type FenceSet map[Source]map[Field]Fences

// Quantile returns the p-th quantile (0 ≤ p ≤ 1) of an ascending slice using
// linear interpolation between the order statistics around rank (n-1)·p.
// It returns NaN for an empty slice.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	if lo >= n-1 {
		return sorted[n-1]
	}
	if lo < 0 {
		return sorted[0]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}

// NewFences computes Tukey fences from unsorted values. The input is not
// modified. With one value every bound equals that value.
func NewFences(values []float64) Fences {
	sorted := slices.Clone(values)
	slices.Sort(sorted)

	q1 := Quantile(sorted, 0.25)
	q3 := Quantile(sorted, 0.75)
	iqr := q3 - q1
	return Fences{
		Q1:    q1,
		Q3:    q3,
		IQR:   iqr,
		Lower: q1 - tukeyK*iqr,
		Upper: q3 + tukeyK*iqr,
		Count: len(values),
	}
}

// ComputeFencesFor computes fences for each field over one source partition.
// Missing values are left out of the statistics and the number skipped is
// logged. A field with no usable values fails with *InsufficientDataError.
func ComputeFencesFor(source Source, partition []Reading, fields []Field, logger *slog.Logger) (map[Field]Fences, error) {
	logger = orDefault(logger)
	out := make(map[Field]Fences, len(fields))
	for _, f := range fields {
		values := make([]float64, 0, len(partition))
		skipped := 0
		for _, r := range partition {
			v, ok := r.Value(f)
			if !ok {
				skipped++
				continue
			}
			values = append(values, v)
		}
		if skipped > 0 {
			logger.Warn("missing values excluded from fence statistics",
				"source", source.String(),
				"field", f.String(),
				"skipped", skipped,
			)
		}
		if len(values) == 0 {
			return nil, &InsufficientDataError{Source: source, Field: f, Count: 0}
		}
		out[f] = NewFences(values)
	}
	return out, nil
}

// FilterResult is the output of an outlier filter pass.
type FilterResult struct {
	Readings       []Reading      `json:"-"`
	Fences         FenceSet       `json:"fences"`
	Removed        map[Source]int `json:"removed"`
	DroppedMissing int            `json:"dropped_missing"`
}

// FilterOutliers removes readings outside the Tukey fences of their own
// source partition. All fences are computed from the unfiltered partitions
// before any reading is removed. The result holds inland readings first, then
// offshore, each in input order.
func FilterOutliers(readings []Reading, fields []Field, logger *slog.Logger) (FilterResult, error) {
	if len(readings) == 0 {
		return FilterResult{}, &InsufficientDataError{Source: SourceUnknown, Field: firstField(fields)}
	}
	parts, err := Partition(readings)
	if err != nil {
		return FilterResult{}, err
	}

	fences := make(FenceSet, len(parts))
	for _, src := range Sources {
		part, ok := parts[src]
		if !ok {
			continue
		}
		fs, err := ComputeFencesFor(src, part, fields, logger)
		if err != nil {
			return FilterResult{}, err
		}
		fences[src] = fs
	}

	return ApplyFences(readings, fences, fields)
}

// ApplyFences filters readings against precomputed fences. Readings with a
// missing screened field are dropped and counted separately from fence
// removals, since their membership cannot be decided.
func ApplyFences(readings []Reading, fences FenceSet, fields []Field) (FilterResult, error) {
	parts, err := Partition(readings)
	if err != nil {
		return FilterResult{}, err
	}

	result := FilterResult{
		Readings: make([]Reading, 0, len(readings)),
		Fences:   fences,
		Removed:  make(map[Source]int, len(parts)),
	}

	for _, src := range Sources {
		part := parts[src]
		if len(part) == 0 {
			continue
		}
		fs, ok := fences[src]
		if !ok {
			return FilterResult{}, fmt.Errorf("apply fences: no fences for source %s", src)
		}
		for _, r := range part {
			switch keep, missing := withinFences(r, fs, fields); {
			case missing:
				result.DroppedMissing++
			case keep:
				result.Readings = append(result.Readings, r)
			default:
				result.Removed[src]++
			}
		}
	}
	return result, nil
}

func withinFences(r Reading, fs map[Field]Fences, fields []Field) (keep, missing bool) {
	keep = true
	for _, f := range fields {
		v, ok := r.Value(f)
		if !ok {
			return false, true
		}
		fence, ok := fs[f]
		if !ok || !fence.Contains(v) {
			keep = false
		}
	}
	return keep, false
}

func firstField(fields []Field) Field {
	if len(fields) == 0 {
		return FieldWindSpeed
	}
	return fields[0]
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
