package hydrate

import "time"

// Stats summarizes one hydration run. Inputs counts positions in the
// input sequence; the remaining counters count unique ids.
type Stats struct {
	// RunID identifies the run in logs.
	RunID string `json:"run_id"`

	// Inputs is the length of the input sequence, duplicates included.
	Inputs int `json:"inputs"`

	// Unique is the number of distinct ids in the input.
	Unique int `json:"unique"`

	// Invalid ids failed shape validation and never reached the cache or
	// the network.
	Invalid int `json:"invalid"`

	// CacheHits and CacheMisses count cache lookups for valid unique ids.
	CacheHits   int `json:"cache_hits"`
	CacheMisses int `json:"cache_misses"`

	// Fetched and NotFound count records resolved over the network.
	Fetched  int `json:"fetched"`
	NotFound int `json:"not_found"`

	// Failed counts ids that ended in an error record, batch failures and
	// aborted positions included.
	Failed int `json:"failed"`

	// Batches is the number of batches formed from cache misses; APICalls
	// is how many of them were admitted and dispatched.
	Batches  int `json:"batches"`
	APICalls int `json:"api_calls"`

	// QuotaUsed is the total admitted cost.
	QuotaUsed int64 `json:"quota_used"`

	// Elapsed is the wall time of the run.
	Elapsed time.Duration `json:"elapsed"`
}
