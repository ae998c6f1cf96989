// Package hydrate orchestrates batch metadata hydration: it turns an
// ordered sequence of ids into an equally ordered sequence of metadata
// records, resolving each unique id exactly once.
//
// # Pipeline stages
//
//   - Dedup: duplicate ids collapse to one fetch; every original
//     position is remembered for output reconstruction.
//   - Validation: ids that fail the source's shape check become error
//     records without touching the cache or the network.
//   - Cache partition: fresh cached records fill their positions
//     directly; only misses are fetched.
//   - Batching: misses are split into source-sized batches in order.
//   - Admission: every batch passes the quota limiter before the
//     network. A batch whose cost can never fit the budget aborts the
//     run immediately.
//   - Fetch and merge: a bounded worker pool resolves batches through
//     the fetch executor and lands records by position, so output order
//     never depends on scheduling. Fresh records are written through to
//     the cache.
//
// One failed batch does not disturb the others: its ids get error
// records and the run continues. Cancellation and quota impossibility
// abort the run; the partial result still accounts for every input id.
//
// # Basic Usage
//
//	pipeline, err := hydrate.New(hydrate.Config{
//		Source:  source,
//		Limiter: ratelimit.New(ratelimit.DefaultConfig(), logger),
//		TTL:     12 * time.Hour,
//	})
//	if err != nil {
//		log.Fatal().Err(err).Msg("pipeline setup failed")
//	}
//
//	result, err := pipeline.Hydrate(ctx, ids)
//	for _, rec := range result.Records {
//		fmt.Println(rec.ID, rec.Status)
//	}
package hydrate
