package export

import (
	"context"
	"iter"
)

// FetchFunc loads the records for a chunk of IDs in any order
type FetchFunc[T any] func(ctx context.Context, ids []int64) ([]T, error)

// Chunk splits ids into consecutive slices of at most size elements.
// The slices share ids' backing array.
func Chunk(ids []int64, size int) [][]int64 {
	if size <= 0 {
		return nil
	}
	chunks := make([][]int64, 0, (len(ids)+size-1)/size)
	for start := 0; start < len(ids); start += size {
		end := min(start+size, len(ids))
		chunks = append(chunks, ids[start:end:end])
	}
	return chunks
}

// OrderedBatches fetches records chunk by chunk and yields each batch in the
// order of ids.
//
// One fetch is issued per chunk. Records the fetch does not return are
// omitted; records whose key is outside the chunk or already placed are
// dropped. The first fetch error is yielded and ends the sequence.
func OrderedBatches[T any](ctx context.Context, ids []int64, size int, fetch FetchFunc[T], key func(T) int64) iter.Seq2[[]T, error] {
	return func(yield func([]T, error) bool) {
		if size <= 0 {
			yield(nil, ErrInvalidBatchSize)
			return
		}
		for _, chunk := range Chunk(ids, size) {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			records, err := fetch(ctx, chunk)
			if err != nil {
				yield(nil, err)
				return
			}
			if !yield(reorder(chunk, records, key), nil) {
				return
			}
		}
	}
}

// reorder arranges records in the order of ids
func reorder[T any](ids []int64, records []T, key func(T) int64) []T {
	index := make(map[int64]int, len(ids))
	for i, id := range ids {
		if _, dup := index[id]; !dup {
			index[id] = i
		}
	}

	slots := make([]T, len(ids))
	filled := make([]bool, len(ids))
	for _, r := range records {
		i, ok := index[key(r)]
		if !ok || filled[i] {
			continue
		}
		slots[i] = r
		filled[i] = true
	}

	out := slots[:0]
	for i, r := range slots {
		if filled[i] {
			out = append(out, r)
		}
	}
	return out
}
