package hydrate

// Batches splits ids into consecutive chunks of at most size elements,
// preserving order. The final batch may be smaller. Empty input yields
// nil; no batch is ever empty.
func Batches(ids []string, size int) [][]string {
	if len(ids) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}

	batches := make([][]string, 0, BatchCount(len(ids), size))
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		batches = append(batches, ids[start:end])
	}
	return batches
}

// BatchCount reports how many batches Batches produces for n ids.
func BatchCount(n, size int) int {
	if n <= 0 {
		return 0
	}
	if size < 1 {
		size = 1
	}
	return (n + size - 1) / size
}
