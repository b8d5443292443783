package helpers

// Batch splits items into consecutive chunks of at most batchSize. The last
// chunk carries the remainder; chunks share the backing array with items.
func Batch[T any](items []T, batchSize int) [][]T {
	batches := make([][]T, 0, (len(items)+batchSize-1)/batchSize)
	for i := 0; i < len(items); i += batchSize {
		batches = append(batches, items[i:min(i+batchSize, len(items))])
	}
	return batches
}
