package entropy

// Weighted pairs a value with its relative selection weight.
type Weighted[T any] struct {
	Value  T
	Weight float64
}

// Pick selects one option with probability proportional to its weight.
// Weights are accumulated in list order and the first entry whose running
// total exceeds r ∈ [0, total) wins. Negative weights count as zero.
//
// When every weight is zero the first entry is returned. ok is false only
// for an empty list.
func Pick[T any](src Source, options []Weighted[T]) (v T, ok bool) {
	if len(options) == 0 {
		return v, false
	}

	total := 0.0
	for _, o := range options {
		if o.Weight > 0 {
			total += o.Weight
		}
	}
	if total <= 0 {
		return options[0].Value, true
	}

	r := OrCrypto(src).Float64() * total
	acc := 0.0
	last := 0
	for i, o := range options {
		if o.Weight <= 0 {
			continue
		}
		acc += o.Weight
		last = i
		if acc > r {
			return o.Value, true
		}
	}

	// Float rounding can leave r at the very top of the range.
	return options[last].Value, true
}
