package favorites

import (
	"bytes"
	"encoding/json"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
)

// encode writes the collection as a JSON array in insertion order.
func encode(items []domain.Favorite) ([]byte, error) {
	if items == nil {
		items = []domain.Favorite{}
	}
	return json.Marshal(items)
}

// decode accepts an empty blob or JSON null as an empty collection.
func decode(raw []byte) ([]domain.Favorite, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return []domain.Favorite{}, nil
	}
	var items []domain.Favorite
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Favorite{}
	}
	return items, nil
}

// repair restores the pin invariants on data written by something else:
// IsPinned and PinnedAt must agree, and at most MaxPinned entries stay pinned
// (the most recently pinned win). It returns how many entries it touched.
func repair(items []domain.Favorite) int {
	fixed := 0
	for i := range items {
		f := &items[i]
		if f.IsPinned != (f.PinnedAt != nil) {
			f.ClearPinned()
			fixed++
		}
	}

	pinned := pinnedOrder(items)
	for _, i := range pinned[min(len(pinned), domain.MaxPinned):] {
		items[i].ClearPinned()
		fixed++
	}
	return fixed
}
