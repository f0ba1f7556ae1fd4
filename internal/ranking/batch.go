package ranking

// Batch sizes per collection.
const (
	PostBatchSize          = 10
	CommentThreadBatchSize = 10
	CommentBatchSize       = 30
)

// GetBatch returns seq[index*size : min(index*size+size, len(seq))]. Out of
// range or negative arguments yield an empty slice.
func GetBatch[T any](index, size int, seq []T) []T {
	if index < 0 || size <= 0 {
		return []T{}
	}
	// Compare by division so index*size cannot overflow.
	if len(seq) == 0 || index > (len(seq)-1)/size {
		return []T{}
	}
	start := index * size
	end := len(seq)
	if size < end-start {
		end = start + size
	}
	out := make([]T, end-start)
	copy(out, seq[start:end])
	return out
}
