package fetch

import (
	"context"

	"github.com/plexutils/youtube-hydrator/pkg/metadata"
)

// Source describes an upstream metadata provider that answers batched
// lookups. Implementations live in pkg/youtube; tests supply fakes.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string

	// Kind is the metadata kind the source produces (video, channel).
	Kind() string

	// MaxBatchSize is the largest ID count a single FetchBatch accepts.
	MaxBatchSize() int

	// BatchCost returns the quota units one FetchBatch of n IDs spends.
	BatchCost(n int) int64

	// Validate rejects IDs the upstream could never answer. Invalid IDs
	// fail before cache, quota, or network are touched.
	Validate(id string) error

	// FetchBatch resolves up to MaxBatchSize IDs in one upstream call.
	// The result maps each found ID to its record; absent IDs signal
	// not_found to the caller. A non-nil error means the whole call
	// failed and no partial map is returned.
	FetchBatch(ctx context.Context, ids []string) (map[string]metadata.Record, error)
}

// CapBatch lowers src's batch size to at most size. Values below 1 or at or
// above the source's own limit return src unchanged.
func CapBatch(src Source, size int) Source {
	if size < 1 || size >= src.MaxBatchSize() {
		return src
	}
	return &cappedSource{Source: src, size: size}
}

type cappedSource struct {
	Source
	size int
}

func (c *cappedSource) MaxBatchSize() int { return c.size }
