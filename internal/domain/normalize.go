package domain

// Nameplate capacities in MW.
const (
	InlandRatedCapacityMW   = 2.5
	OffshoreRatedCapacityMW = 4.0
)

// RatedCapacity returns the nameplate capacity in MW for a source.
func RatedCapacity(s Source) (float64, error) {
	switch s {
	case SourceInland:
		return InlandRatedCapacityMW, nil
	case SourceOffshore:
		return OffshoreRatedCapacityMW, nil
	default:
		return 0, &UnknownSourceError{Value: s.String()}
	}
}

// NormalizePower returns a copy of r with AbsolutePower derived from
// PercentToRated and the source's rated capacity. Values outside 0–100 are
// passed through unchanged. A missing percentage leaves AbsolutePower missing.
//
// The derivation only runs forward: AbsolutePower is never read, so calling
// NormalizePower again yields the same result.
func NormalizePower(r Reading) (Reading, error) {
	capacity, err := RatedCapacity(r.Source)
	if err != nil {
		return Reading{}, err
	}
	if r.Missing.Has(FieldPercentToRated) {
		r.AbsolutePower = 0
		r.Missing = r.Missing.With(FieldAbsolutePower)
		return r, nil
	}
	r.AbsolutePower = r.PercentToRated / 100 * capacity
	r.Missing = r.Missing.Without(FieldAbsolutePower)
	return r, nil
}

// NormalizeAll normalizes every reading into a new slice. It fails on the
// first unknown source and returns no partial output.
func NormalizeAll(readings []Reading) ([]Reading, error) {
	out := make([]Reading, len(readings))
	for i, r := range readings {
		n, err := NormalizePower(r)
		if err != nil {
			return nil, err
		}
		out[i] = n
	}
	return out, nil
}

// Merge concatenates the readings of every table, in table order, into a new
// slice.
func Merge(tables []TurbineTable) []Reading {
	total := 0
	for _, t := range tables {
		total += len(t.Readings)
	}
	out := make([]Reading, 0, total)
	for _, t := range tables {
		out = append(out, t.Readings...)
	}
	return out
}

// Partition groups readings by source, preserving input order within each
// group. Readings with an invalid source are reported as an error.
func Partition(readings []Reading) (map[Source][]Reading, error) {
	parts := make(map[Source][]Reading, len(Sources))
	for _, r := range readings {
		if _, err := RatedCapacity(r.Source); err != nil {
			return nil, err
		}
		parts[r.Source] = append(parts[r.Source], r)
	}
	return parts, nil
}
