package favorites

import (
	"sort"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
)

// Pinned returns the pinned favorites, most recently pinned first.
// Derived from the collection on every call.
func (r *Registry) Pinned() []domain.Favorite {
	items := r.snapshot()
	order := pinnedOrder(items)
	if len(order) > domain.MaxPinned {
		order = order[:domain.MaxPinned]
	}
	out := make([]domain.Favorite, 0, len(order))
	for _, i := range order {
		out = append(out, items[i].Clone())
	}
	return out
}

// PinnedCount is len(Pinned()) without the copies.
func (r *Registry) PinnedCount() int {
	return min(pinnedCount(r.snapshot()), domain.MaxPinned)
}

// Sorted returns every favorite: pinned ones first (most recently pinned
// first), then the rest by LastUsedAt descending. Equal LastUsedAt keeps
// insertion order.
func (r *Registry) Sorted() []domain.Favorite {
	items := r.snapshot()

	pinned := pinnedOrder(items)
	rest := make([]int, 0, len(items)-len(pinned))
	for i := range items {
		if !items[i].IsPinned {
			rest = append(rest, i)
		}
	}
	sort.SliceStable(rest, func(a, b int) bool {
		return items[rest[a]].LastUsedAt.After(items[rest[b]].LastUsedAt)
	})

	out := make([]domain.Favorite, 0, len(items))
	for _, i := range pinned {
		out = append(out, items[i].Clone())
	}
	for _, i := range rest {
		out = append(out, items[i].Clone())
	}
	return out
}

// pinnedOrder returns indexes of pinned entries ordered by PinnedAt
// descending. Ties (only possible in foreign data) keep insertion order.
func pinnedOrder(items []domain.Favorite) []int {
	idx := make([]int, 0, domain.MaxPinned)
	for i := range items {
		if items[i].IsPinned && items[i].PinnedAt != nil {
			idx = append(idx, i)
		}
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return items[idx[a]].PinnedAt.After(*items[idx[b]].PinnedAt)
	})
	return idx
}

// Search ranks favorites against a free-text query over name, target, app
// name and tags. An empty query returns Sorted(). Equal scores keep the
// Sorted() order.
func (r *Registry) Search(query string) []domain.Favorite {
	sorted := r.Sorted()
	q := domain.ParseQuery(query)
	if q.Empty() {
		return sorted
	}

	ranked := domain.Rank(q, sorted)
	out := make([]domain.Favorite, len(ranked))
	for i := range ranked {
		out[i] = ranked[i].Favorite
	}
	return out
}
