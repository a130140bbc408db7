package orchestrator

import "sort"

// combinations returns every k-element subset of pool, as sorted slices, in
// lexicographic order over the (sorted) input. Returns nil if k is out of
// [0, len(pool)] range, matching math.comb's zero count.
func combinations(pool []int64, k int) [][]int64 {
	n := len(pool)
	if k < 0 || k > n {
		return nil
	}
	sorted := make([]int64, n)
	copy(sorted, pool)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	if k == 0 {
		return [][]int64{{}}
	}

	var result [][]int64
	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}

	for {
		combo := make([]int64, k)
		for i, idx := range indices {
			combo[i] = sorted[idx]
		}
		result = append(result, combo)

		// Advance indices like an odometer, rightmost first.
		i := k - 1
		for i >= 0 && indices[i] == i+n-k {
			i--
		}
		if i < 0 {
			break
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}

	return result
}

// numCombinations returns n choose k without building the list, used only to
// decide whether MaxCombinationsThreshold would be exceeded.
func numCombinations(n, k int) int64 {
	if k < 0 || k > n {
		return 0
	}
	if k > n-k {
		k = n - k
	}
	result := int64(1)
	for i := 0; i < k; i++ {
		result = result * int64(n-i) / int64(i+1)
	}
	return result
}

// rootSetKey produces a canonical, order-independent identity for a root
// set, used to deduplicate configurations already tried.
func rootSetKey(roots []int64) string {
	sorted := make([]int64, len(roots))
	copy(sorted, roots)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	key := make([]byte, 0, len(sorted)*8)
	for _, r := range sorted {
		key = appendInt64(key, r)
	}
	return string(key)
}

func appendInt64(b []byte, v int64) []byte {
	for i := 0; i < 8; i++ {
		b = append(b, byte(v>>(8*i)))
		b = append(b, ',')
	}
	return b
}
