package dataset

// SortWithPermutation sorts values ascending in place while keeping order in
// step with it, so that order[i] names the series now stored at values[i].
// Equal neighbours are never swapped, and neither is a NaN, so the pass
// always terminates. The pass restarts from the front after
// every swap, which is quadratic but fine for the handful of series a chart
// carries.
func SortWithPermutation(values []float64, order []int32) {
	n := min(len(values), len(order))
	for i := 0; i < n-1; i++ {
		if !(values[i] > values[i+1]) {
			continue
		}
		values[i], values[i+1] = values[i+1], values[i]
		order[i], order[i+1] = order[i+1], order[i]
		i = -1
	}
}

// Identity returns the permutation 0..n-1.
func Identity(n int) []int32 {
	order := make([]int32, n)
	for i := range order {
		order[i] = int32(i)
	}
	return order
}
