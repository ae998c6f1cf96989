// Package metadata defines the record model produced by hydration.
//
// A Record is the unit of output: one per input ID position, carrying the
// fetched fields, the fetch timestamp, and a status that distinguishes a
// successful fetch from an upstream miss or a failure.
package metadata

import "time"

// Status describes the outcome of hydrating a single ID.
type Status string

const (
	// StatusOK means the upstream returned metadata for the ID.
	StatusOK Status = "ok"
	// StatusNotFound means the upstream answered but does not know the ID.
	StatusNotFound Status = "not_found"
	// StatusError means hydration failed for this ID (fetch error, invalid
	// ID, cancelled run). The Err field carries the reason.
	StatusError Status = "error"
)

// Kind identifies the upstream entity type a record describes.
const (
	KindVideo   = "video"
	KindChannel = "channel"
)

// Record is the hydration result for a single ID.
type Record struct {
	ID        string            `json:"id"`
	Kind      string            `json:"kind"`
	Fields    map[string]string `json:"fields,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
	Status    Status            `json:"status"`
	Err       string            `json:"error,omitempty"`
}

// NewRecord creates an ok record with the given fields.
func NewRecord(kind, id string, fields map[string]string) Record {
	return Record{
		ID:        id,
		Kind:      kind,
		Fields:    fields,
		FetchedAt: time.Now().UTC(),
		Status:    StatusOK,
	}
}

// NotFound creates a record for an ID the upstream does not know.
func NotFound(kind, id string) Record {
	return Record{
		ID:        id,
		Kind:      kind,
		FetchedAt: time.Now().UTC(),
		Status:    StatusNotFound,
	}
}

// Failed creates an error record. A nil err yields an empty reason.
func Failed(kind, id string, err error) Record {
	r := Record{
		ID:        id,
		Kind:      kind,
		FetchedAt: time.Now().UTC(),
		Status:    StatusError,
	}
	if err != nil {
		r.Err = err.Error()
	}
	return r
}

// OK reports whether the record carries fetched metadata.
func (r Record) OK() bool {
	return r.Status == StatusOK
}

// Field returns the named field or the empty string.
func (r Record) Field(name string) string {
	return r.Fields[name]
}

// Clone returns a deep copy. Cached records are cloned on read so callers
// cannot mutate store internals through the shared Fields map.
func (r Record) Clone() Record {
	out := r
	if r.Fields != nil {
		out.Fields = make(map[string]string, len(r.Fields))
		for k, v := range r.Fields {
			out.Fields[k] = v
		}
	}
	return out
}
