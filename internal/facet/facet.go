package facet

import (
	"sync"

	"github.com/yourorg/doctor-finder/internal/collation"
)

// Index maps country names to the set of cities with at least one valid
// doctor. Facets only grow; the source is read-mostly and append-only.
// Iteration order is imposed at read time by the collator.
type Index struct {
	mu        sync.RWMutex
	countries map[string]map[string]struct{}
	coll      *collation.Collator
}

func NewIndex(coll *collation.Collator) *Index {
	return &Index{countries: make(map[string]map[string]struct{}), coll: coll}
}

// Upsert adds city to country's set, creating the set if absent.
func (ix *Index) Upsert(country, city string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	set, ok := ix.countries[country]
	if !ok {
		set = make(map[string]struct{})
		ix.countries[country] = set
	}
	set[city] = struct{}{}
}

// Countries returns every known country, collator-sorted.
func (ix *Index) Countries() []string {
	ix.mu.RLock()
	out := make([]string, 0, len(ix.countries))
	for c := range ix.countries {
		out = append(out, c)
	}
	ix.mu.RUnlock()
	ix.coll.SortStrings(out)
	return out
}

// Cities returns the cities recorded for country, collator-sorted. Unknown
// countries yield an empty slice.
func (ix *Index) Cities(country string) []string {
	ix.mu.RLock()
	set := ix.countries[country]
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	ix.mu.RUnlock()
	ix.coll.SortStrings(out)
	return out
}

// HasCity reports whether city belongs to country.
func (ix *Index) HasCity(country, city string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.countries[country][city]
	return ok
}
