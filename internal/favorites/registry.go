// Package favorites owns the in-memory favorites collection and keeps it
// written through to a store.Store.
//
// Readers see immutable snapshots. Writers are serialized: each mutation
// works on a private copy, persists it, and only then swaps it in. A failed
// write leaves the previous snapshot untouched.
package favorites

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
	"github.com/MrSnakeDoc/tokendock/internal/store"
)

// DefaultKey is the store key holding the favorites blob.
const DefaultKey = "favorites"

var (
	// ErrPersist wraps store failures. The in-memory collection is unchanged when it is returned.
	ErrPersist = errors.New("favorites: persist failed")
	// ErrNotLoaded is returned by mutations issued before Load.
	ErrNotLoaded = errors.New("favorites: registry not loaded")
	// ErrPinLimit is returned when an insert asks for a pin while MaxPinned are already pinned.
	ErrPinLimit = errors.New("favorites: pin limit reached")
)

// Recorder receives registry measurements. See internal/metrics.
type Recorder interface {
	PinAttempt(reason domain.PinReason)
	StoreWrite(driver string, err error)
	Collection(total, pinned int)
	Cascade(deleted int)
}

type nopRecorder struct{}

func (nopRecorder) PinAttempt(domain.PinReason) {}
func (nopRecorder) StoreWrite(string, error)    {}
func (nopRecorder) Collection(int, int)         {}
func (nopRecorder) Cascade(int)                 {}

// Option configures a Registry.
type Option func(*Registry)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

func WithLogger(log logger.Logger) Option {
	return func(r *Registry) { r.log = log }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Registry) { r.rec = rec }
}

// WithKey overrides DefaultKey.
func WithKey(key string) Option {
	return func(r *Registry) { r.key = key }
}

// Registry is the single authority over the favorites collection.
type Registry struct {
	store store.Store
	key   string
	log   logger.Logger
	rec   Recorder
	now   func() time.Time
	newID func() string

	// writeMu serializes mutation + persistence.
	writeMu sync.Mutex

	// mu guards the fields below. items is never modified in place.
	mu      sync.RWMutex
	items   []domain.Favorite
	version uint64
	loaded  bool

	events mux
}

// New builds an empty, unloaded registry over st.
func New(st store.Store, opts ...Option) *Registry {
	r := &Registry{
		store: st,
		key:   DefaultKey,
		log:   logger.Nop(),
		rec:   nopRecorder{},
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ─────────────────────────────
// Lifecycle
// ─────────────────────────────

// Load replaces the collection with what the store holds.
// A missing key yields an empty collection. Entries violating the pin
// invariants are repaired in memory and written back on the next mutation.
func (r *Registry) Load(ctx context.Context) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	raw, err := r.store.Get(ctx, r.key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		raw = nil
	case err != nil:
		return fmt.Errorf("favorites: load %q: %w", r.key, err)
	}

	items, err := decode(raw)
	if err != nil {
		return fmt.Errorf("favorites: decode %q: %w", r.key, err)
	}

	if fixed := repair(items); fixed > 0 {
		r.log.Warn("favorites: repaired pin state on load", logger.Int("entries", fixed))
	}
	if dups := countDuplicateKeys(items); dups > 0 {
		r.log.Warn("favorites: duplicate natural keys in store", logger.Int("duplicates", dups))
	}

	r.mu.Lock()
	r.items = items
	r.loaded = true
	r.version++
	ev := Event{Kind: EventLoaded, Version: r.version}
	r.mu.Unlock()

	r.record(items)
	r.events.publish(ev)

	r.log.Info("favorites loaded",
		logger.Int("count", len(items)),
		logger.Int("pinned", pinnedCount(items)),
		logger.String("driver", r.store.Name()),
	)
	return nil
}

// Subscribe returns a subscription to mutation events.
func (r *Registry) Subscribe() *Subscription {
	return r.events.subscribe()
}

// Subscribers reports the number of live subscriptions.
func (r *Registry) Subscribers() int {
	return r.events.count()
}

// Loaded reports whether Load has succeeded.
func (r *Registry) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Version increases on every applied change.
func (r *Registry) Version() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.version
}

// ─────────────────────────────
// Mutations
// ─────────────────────────────

// Add appends fav and returns the stored copy. Duplicate natural keys are
// not rejected here; callers that need uniqueness use AddIfAbsent.
// Zero CreatedAt and LastUsedAt are filled with the registry clock.
func (r *Registry) Add(ctx context.Context, fav domain.Favorite) (domain.Favorite, error) {
	stored, _, err := r.insert(ctx, fav, false)
	return stored, err
}

// AddIfAbsent appends fav unless a favorite with the same natural key exists.
// The check and the insert run under one write lock. When the key is taken
// it returns the existing favorite and false.
func (r *Registry) AddIfAbsent(ctx context.Context, fav domain.Favorite) (domain.Favorite, bool, error) {
	return r.insert(ctx, fav, true)
}

// AddFromToken creates a favorite from an issued token and returns it.
// UseCount starts at 1; CreatedAt and LastUsedAt are now.
func (r *Registry) AddFromToken(ctx context.Context, tc domain.TokenContext, extras domain.FavoriteExtras) (domain.Favorite, error) {
	fav, err := r.fromToken(tc, extras)
	if err != nil {
		return domain.Favorite{}, err
	}
	return r.Add(ctx, fav)
}

// AddFromTokenIfAbsent is AddFromToken with the AddIfAbsent guard.
func (r *Registry) AddFromTokenIfAbsent(ctx context.Context, tc domain.TokenContext, extras domain.FavoriteExtras) (domain.Favorite, bool, error) {
	fav, err := r.fromToken(tc, extras)
	if err != nil {
		return domain.Favorite{}, false, err
	}
	return r.AddIfAbsent(ctx, fav)
}

func (r *Registry) insert(ctx context.Context, fav domain.Favorite, unique bool) (domain.Favorite, bool, error) {
	if err := fav.Validate(); err != nil {
		return domain.Favorite{}, false, err
	}
	fav = fav.Clone()
	fav.Target = domain.NormalizeTarget(fav.Target)
	fav.Tags = domain.NormalizeTags(fav.Tags)

	var existing *domain.Favorite
	_, err := r.mutate(ctx, EventAdded, func(items []domain.Favorite) ([]domain.Favorite, []string, error) {
		if indexOf(items, fav.ID) >= 0 {
			return nil, nil, fmt.Errorf("%w: id %q already exists", domain.ErrInvalidFavorite, fav.ID)
		}
		if unique {
			if i := indexOfKey(items, fav.Key()); i >= 0 {
				existing = &items[i]
				return nil, nil, nil
			}
		}
		if fav.CreatedAt.IsZero() {
			fav.CreatedAt = r.stamp()
		}
		if fav.LastUsedAt.IsZero() {
			fav.LastUsedAt = fav.CreatedAt
		}
		if fav.IsPinned {
			if pinnedCount(items) >= domain.MaxPinned {
				return nil, nil, ErrPinLimit
			}
			fav.SetPinned(r.pinStamp(items))
		} else {
			fav.ClearPinned()
		}
		return append(items, fav), []string{fav.ID}, nil
	})
	switch {
	case err != nil:
		return domain.Favorite{}, false, err
	case existing != nil:
		return existing.Clone(), false, nil
	}
	return fav.Clone(), true, nil
}

func (r *Registry) fromToken(tc domain.TokenContext, extras domain.FavoriteExtras) (domain.Favorite, error) {
	if !tc.TokenType.Valid() {
		return domain.Favorite{}, fmt.Errorf("%w: unknown token type %q", domain.ErrInvalidFavorite, tc.TokenType)
	}
	target := domain.NormalizeTarget(tc.Target)
	if target == "" {
		return domain.Favorite{}, fmt.Errorf("%w: target is required", domain.ErrInvalidFavorite)
	}

	now := r.stamp()
	fav := domain.Favorite{
		ID:          r.newID(),
		TokenType:   tc.TokenType,
		Target:      target,
		Name:        extras.Name,
		Description: extras.Description,
		Color:       extras.Color,
		Tags:        domain.NormalizeTags(extras.Tags),
		CreatedAt:   now,
		LastUsedAt:  now,
		UseCount:    1,
		IsPinned:    extras.Pinned,
		AppID:       tc.AppID,
		AppName:     tc.AppName,
		AppColor:    tc.AppColor,
	}
	if len(tc.TokenData) > 0 {
		fav.TokenData = append(json.RawMessage(nil), tc.TokenData...)
	}
	return fav, nil
}

// Update applies patch to the favorite with id and returns the result.
// It reports false when id is unknown.
func (r *Registry) Update(ctx context.Context, id string, patch domain.FavoritePatch) (domain.Favorite, bool, error) {
	return r.modify(ctx, EventUpdated, id, func(f *domain.Favorite) {
		patch.Apply(f)
	})
}

// Delete removes the favorite with id. Unknown ids are a no-op.
func (r *Registry) Delete(ctx context.Context, id string) (bool, error) {
	n, err := r.DeleteMany(ctx, []string{id})
	return n > 0, err
}

// DeleteMany removes every listed id and returns how many were present.
func (r *Registry) DeleteMany(ctx context.Context, ids []string) (int, error) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	return r.removeWhere(ctx, func(f *domain.Favorite) bool { return drop[f.ID] })
}

// DeleteByOwner removes every favorite whose AppID is in ownerIDs.
// Used when an app registration goes away.
func (r *Registry) DeleteByOwner(ctx context.Context, ownerIDs []string) (int, error) {
	owners := make(map[string]bool, len(ownerIDs))
	for _, id := range ownerIDs {
		if id != "" {
			owners[id] = true
		}
	}
	if len(owners) == 0 {
		return 0, nil
	}
	n, err := r.removeWhere(ctx, func(f *domain.Favorite) bool { return owners[f.AppID] })
	if err == nil && n > 0 {
		r.rec.Cascade(n)
		r.log.Info("favorites: cascade delete", logger.Strings("owners", ownerIDs), logger.Int("deleted", n))
	}
	return n, err
}

func (r *Registry) removeWhere(ctx context.Context, match func(*domain.Favorite) bool) (int, error) {
	var removed []string
	_, err := r.mutate(ctx, EventDeleted, func(items []domain.Favorite) ([]domain.Favorite, []string, error) {
		kept := items[:0]
		for i := range items {
			if match(&items[i]) {
				removed = append(removed, items[i].ID)
				continue
			}
			kept = append(kept, items[i])
		}
		if len(removed) == 0 {
			return nil, nil, nil
		}
		return kept, removed, nil
	})
	if err != nil {
		return 0, err
	}
	return len(removed), nil
}

// Clear empties the collection.
func (r *Registry) Clear(ctx context.Context) error {
	_, err := r.mutate(ctx, EventCleared, func(items []domain.Favorite) ([]domain.Favorite, []string, error) {
		if len(items) == 0 {
			return nil, nil, nil
		}
		return []domain.Favorite{}, nil, nil
	})
	return err
}

// IncrementUse bumps UseCount and LastUsedAt and returns the result.
// It reports false when id is unknown.
func (r *Registry) IncrementUse(ctx context.Context, id string) (domain.Favorite, bool, error) {
	return r.modify(ctx, EventUsed, id, func(f *domain.Favorite) {
		f.UseCount++
		f.LastUsedAt = r.stamp()
	})
}

// modify applies fn to the favorite with id and returns the stored copy
// captured under the write lock.
func (r *Registry) modify(ctx context.Context, kind EventKind, id string, fn func(*domain.Favorite)) (domain.Favorite, bool, error) {
	var out domain.Favorite
	found, err := r.mutate(ctx, kind, func(items []domain.Favorite) ([]domain.Favorite, []string, error) {
		i := indexOf(items, id)
		if i < 0 {
			return nil, nil, nil
		}
		fn(&items[i])
		out = items[i].Clone()
		return items, []string{id}, nil
	})
	if err != nil || !found {
		return domain.Favorite{}, false, err
	}
	return out, true, nil
}

// ─────────────────────────────
// Lookups
// ─────────────────────────────

// FindMatch returns the first favorite with the given natural key.
func (r *Registry) FindMatch(tokenType domain.TokenType, target string) (domain.Favorite, bool) {
	key := domain.NewNaturalKey(tokenType, target)
	items := r.snapshot()
	if i := indexOfKey(items, key); i >= 0 {
		return items[i].Clone(), true
	}
	return domain.Favorite{}, false
}

// IsDuplicate reports whether a favorite with this natural key exists.
func (r *Registry) IsDuplicate(tokenType domain.TokenType, target string) bool {
	_, ok := r.FindMatch(tokenType, target)
	return ok
}

// Get returns the favorite with id.
func (r *Registry) Get(id string) (domain.Favorite, bool) {
	items := r.snapshot()
	if i := indexOf(items, id); i >= 0 {
		return items[i].Clone(), true
	}
	return domain.Favorite{}, false
}

// All returns the collection in insertion order.
func (r *Registry) All() []domain.Favorite {
	return cloneAll(r.snapshot())
}

// Count is the collection size.
func (r *Registry) Count() int {
	return len(r.snapshot())
}

// ─────────────────────────────
// Internals
// ─────────────────────────────

type mutation func(items []domain.Favorite) (next []domain.Favorite, changed []string, err error)

// mutate runs fn against a private copy of the collection. A nil next means
// nothing changed: no write, no event, and mutate reports false.
func (r *Registry) mutate(ctx context.Context, kind EventKind, fn mutation) (bool, error) {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	r.mu.RLock()
	loaded := r.loaded
	work := cloneAll(r.items)
	r.mu.RUnlock()

	if !loaded {
		return false, ErrNotLoaded
	}

	next, changed, err := fn(work)
	if err != nil || next == nil {
		return false, err
	}

	if err := r.persist(ctx, next); err != nil {
		return false, err
	}

	r.mu.Lock()
	r.items = next
	r.version++
	ev := Event{Kind: kind, Version: r.version, IDs: changed}
	r.mu.Unlock()

	r.record(next)
	r.events.publish(ev)

	r.log.Debug("favorites: applied",
		logger.String("kind", string(kind)),
		logger.Uint64("version", ev.Version),
		logger.Strings("ids", changed),
	)
	return true, nil
}

func (r *Registry) persist(ctx context.Context, items []domain.Favorite) error {
	blob, err := encode(items)
	if err != nil {
		return fmt.Errorf("%w: encode: %v", ErrPersist, err)
	}

	err = r.store.Set(ctx, r.key, blob)
	r.rec.StoreWrite(r.store.Name(), err)
	if err != nil {
		r.log.Error("favorites: write failed", logger.String("driver", r.store.Name()), logger.Error(err))
		return fmt.Errorf("%w: %w", ErrPersist, err)
	}
	return nil
}

func (r *Registry) snapshot() []domain.Favorite {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items
}

func (r *Registry) record(items []domain.Favorite) {
	r.rec.Collection(len(items), pinnedCount(items))
}

// stamp returns the current time without a monotonic reading so values
// survive a JSON round trip unchanged.
func (r *Registry) stamp() time.Time {
	return r.now().Round(0)
}

// pinStamp returns a pin time strictly after every pin already in items,
// so ordering by PinnedAt never ties.
func (r *Registry) pinStamp(items []domain.Favorite) time.Time {
	t := r.stamp()
	for i := range items {
		if p := items[i].PinnedAt; items[i].IsPinned && p != nil && !t.After(*p) {
			t = p.Add(time.Nanosecond)
		}
	}
	return t
}

func indexOf(items []domain.Favorite, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func indexOfKey(items []domain.Favorite, key domain.NaturalKey) int {
	for i := range items {
		if items[i].Key() == key {
			return i
		}
	}
	return -1
}

func cloneAll(items []domain.Favorite) []domain.Favorite {
	out := make([]domain.Favorite, len(items))
	for i := range items {
		out[i] = items[i].Clone()
	}
	return out
}

func pinnedCount(items []domain.Favorite) int {
	n := 0
	for i := range items {
		if items[i].IsPinned {
			n++
		}
	}
	return n
}

func countDuplicateKeys(items []domain.Favorite) int {
	seen := make(map[domain.NaturalKey]bool, len(items))
	dups := 0
	for i := range items {
		k := items[i].Key()
		if seen[k] {
			dups++
		}
		seen[k] = true
	}
	return dups
}
