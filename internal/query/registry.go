package query

import (
	"sort"

	"github.com/conduit-lang/marvelous/internal/endpoint"
)

// Entry is one discovered endpoint and the display name it was first seen with
type Entry struct {
	Endpoint endpoint.Endpoint
	Name     string
}

// Registry collects the endpoints discovered while walking one page,
// partitioned by resource type. It is used for deduplication and logging and
// never feeds back into results.
type Registry struct {
	byType     map[endpoint.Type]map[endpoint.Endpoint]string
	duplicates int
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{byType: make(map[endpoint.Type]map[endpoint.Endpoint]string)}
}

// Add records ep under its own type. It returns false when ep was already
// present; the first name wins.
func (r *Registry) Add(ep endpoint.Endpoint, name string) bool {
	t := ep.Type()
	bucket, ok := r.byType[t]
	if !ok {
		bucket = make(map[endpoint.Endpoint]string)
		r.byType[t] = bucket
	}
	if _, seen := bucket[ep]; seen {
		r.duplicates++
		return false
	}
	bucket[ep] = name
	return true
}

// Len returns the number of distinct endpoints
func (r *Registry) Len() int {
	n := 0
	for _, bucket := range r.byType {
		n += len(bucket)
	}
	return n
}

// Duplicates returns how many Add calls hit an existing endpoint
func (r *Registry) Duplicates() int { return r.duplicates }

// Entries returns every distinct endpoint sorted by type, id, then subtype.
func (r *Registry) Entries() []Entry {
	entries := make([]Entry, 0, r.Len())
	for _, bucket := range r.byType {
		for ep, name := range bucket {
			entries = append(entries, Entry{Endpoint: ep, Name: name})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		return endpoint.Compare(entries[i].Endpoint, entries[j].Endpoint) < 0
	})
	return entries
}

// ByType groups the sorted entries by their endpoint type.
func (r *Registry) ByType() map[endpoint.Type][]Entry {
	grouped := make(map[endpoint.Type][]Entry, len(r.byType))
	for _, e := range r.Entries() {
		t := e.Endpoint.Type()
		grouped[t] = append(grouped[t], e)
	}
	return grouped
}
