package favorites

import (
	"context"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
)

// Pin pins the favorite with id, or refreshes PinnedAt if it is already
// pinned. The cap only applies when the pinned count would grow.
func (r *Registry) Pin(ctx context.Context, id string) (domain.PinResult, error) {
	var res domain.PinResult
	_, err := r.mutate(ctx, EventPinned, func(items []domain.Favorite) ([]domain.Favorite, []string, error) {
		i := indexOf(items, id)
		if i < 0 {
			res = domain.PinNotFound.WithID(id)
			return nil, nil, nil
		}
		res = r.pinAt(items, i)
		if !res.Success {
			return nil, nil, nil
		}
		return items, []string{id}, nil
	})
	return r.pinOutcome(res, err)
}

// Unpin clears the pin. Unknown ids and already-unpinned favorites succeed
// without touching the store.
func (r *Registry) Unpin(ctx context.Context, id string) (domain.PinResult, error) {
	_, err := r.mutate(ctx, EventUnpinned, func(items []domain.Favorite) ([]domain.Favorite, []string, error) {
		i := indexOf(items, id)
		if i < 0 || !items[i].IsPinned {
			return nil, nil, nil
		}
		items[i].ClearPinned()
		return items, []string{id}, nil
	})
	if err != nil {
		return domain.PinResult{}, err
	}
	return domain.PinOK.WithID(id), nil
}

// SetPinned dispatches to Pin or Unpin.
func (r *Registry) SetPinned(ctx context.Context, id string, pinned bool) (domain.PinResult, error) {
	if pinned {
		return r.Pin(ctx, id)
	}
	return r.Unpin(ctx, id)
}

// PinFromToken pins the favorite matching the token's natural key, creating
// it first if none exists. The cap is checked before anything is created, so
// a refused call leaves the collection exactly as it was.
func (r *Registry) PinFromToken(ctx context.Context, tc domain.TokenContext, extras domain.FavoriteExtras) (domain.PinResult, error) {
	candidate, err := r.fromToken(tc, extras)
	if err != nil {
		return domain.PinResult{}, err
	}
	key := candidate.Key()

	var res domain.PinResult
	_, err = r.mutate(ctx, EventPinned, func(items []domain.Favorite) ([]domain.Favorite, []string, error) {
		for i := range items {
			if items[i].Key() != key {
				continue
			}
			res = r.pinAt(items, i)
			if !res.Success {
				return nil, nil, nil
			}
			return items, []string{items[i].ID}, nil
		}

		if pinnedCount(items) >= domain.MaxPinned {
			res = domain.PinLimit
			return nil, nil, nil
		}
		candidate.SetPinned(r.pinStamp(items))
		res = domain.PinOK.WithID(candidate.ID)
		return append(items, candidate), []string{candidate.ID}, nil
	})
	return r.pinOutcome(res, err)
}

// pinAt pins items[i] in place unless that would exceed the cap.
func (r *Registry) pinAt(items []domain.Favorite, i int) domain.PinResult {
	id := items[i].ID
	if !items[i].IsPinned && pinnedCount(items) >= domain.MaxPinned {
		return domain.PinLimit.WithID(id)
	}
	items[i].SetPinned(r.pinStamp(items))
	return domain.PinOK.WithID(id)
}

func (r *Registry) pinOutcome(res domain.PinResult, err error) (domain.PinResult, error) {
	if err != nil {
		return domain.PinResult{}, err
	}
	r.rec.PinAttempt(res.Reason)
	if res.Reason == domain.ReasonLimit {
		r.log.Info("favorites: pin refused, limit reached", logger.Int("max", domain.MaxPinned))
	}
	return res, nil
}
