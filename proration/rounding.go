package proration

// =============================================================================
// DISPLAY ROUNDING - Cent allocation that still sums to the total
// =============================================================================

// RoundShares rounds a set of exact shares to currency cents so that the
// rounded values sum to the rounded total. Individually rounding each
// share can drift a cent or two off the total; the difference is absorbed
// by the largest share.
//
// Presentation-layer only. The engine accumulates unrounded decimals and
// callers round once, at the edge.
func RoundShares(total Money, shares []Money) []Money {
	if len(shares) == 0 {
		return nil
	}

	rounded := make([]Money, len(shares))
	sum := Zero()
	maxIdx := 0
	for i, s := range shares {
		rounded[i] = s.Round(2)
		sum = sum.Add(rounded[i])
		if rounded[i].GreaterThan(rounded[maxIdx]) {
			maxIdx = i
		}
	}

	diff := total.Round(2).Sub(sum)
	if !diff.IsZero() {
		rounded[maxIdx] = rounded[maxIdx].Add(diff)
	}
	return rounded
}

// SplitEvenly divides an amount across n ways, rounded to cents, with the
// leftover cent(s) folded into the first share so the parts always sum to
// the rounded whole.
func SplitEvenly(total Money, n int) []Money {
	if n <= 0 {
		return nil
	}

	each := total.DivInt(n).Round(2)
	parts := make([]Money, n)
	sum := Zero()
	for i := range parts {
		parts[i] = each
		sum = sum.Add(each)
	}

	if diff := total.Round(2).Sub(sum); !diff.IsZero() {
		parts[0] = parts[0].Add(diff)
	}
	return parts
}
