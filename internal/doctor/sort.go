package doctor

import (
	"sort"

	"github.com/yourorg/doctor-finder/internal/collation"
)

// SortForDisplay returns the subset ordered by sort key under the given
// collator. The sort is stable: doctors whose keys compare equal keep their
// source order. The input slice is not modified.
func SortForDisplay(subset []Doctor, c *collation.Collator) []Doctor {
	out := make([]Doctor, len(subset))
	copy(out, subset)
	sort.SliceStable(out, func(i, j int) bool {
		return c.Compare(out[i].SortKey, out[j].SortKey) < 0
	})
	return out
}
