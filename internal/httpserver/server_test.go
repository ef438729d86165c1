package httpserver

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/tokendock/internal/catalog"
	"github.com/MrSnakeDoc/tokendock/internal/domain"
	"github.com/MrSnakeDoc/tokendock/internal/favorites"
	"github.com/MrSnakeDoc/tokendock/internal/httpserver/deps"
	"github.com/MrSnakeDoc/tokendock/internal/logger"
	"github.com/MrSnakeDoc/tokendock/internal/metrics"
	"github.com/MrSnakeDoc/tokendock/internal/store/memory"
)

type switchStore struct {
	*memory.Store
	fail atomic.Bool
}

func (s *switchStore) Set(ctx context.Context, key string, data []byte) error {
	if s.fail.Load() {
		return fmt.Errorf("disk full")
	}
	return s.Store.Set(ctx, key, data)
}

type fixture struct {
	deps  deps.Deps
	store *switchStore
	h     http.Handler
}

func newFixture(t *testing.T, mutate ...func(*deps.Deps)) *fixture {
	t.Helper()

	st := &switchStore{Store: memory.New()}
	m := metrics.New()
	reg := favorites.New(st, favorites.WithRecorder(m))
	require.NoError(t, reg.Load(context.Background()))

	cat := catalog.New()
	cat.Update([]*domain.App{{ID: "app-1", Name: "Billing", Color: "#0af", ClientID: "app-1"}})

	d := deps.Deps{
		Logger:     logger.Nop(),
		StartTime:  time.Now(),
		Version:    "test",
		RateBurst:  1000,
		RateRefill: 1000,
		Registry:   reg,
		Store:      st,
		Catalog:    cat,
		Metrics:    m,
		KeepAlive:  time.Hour,
	}
	for _, fn := range mutate {
		fn(&d)
	}
	return &fixture{deps: d, store: st, h: NewRouter(d.Logger, d)}
}

func (f *fixture) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.h.ServeHTTP(rec, r)
	return rec
}

func tokenBody(target string) string {
	return fmt.Sprintf(`{"token":{"tokenType":"AppToken","target":%q,"appId":"app-1"},"extras":{"name":%q}}`, target, target)
}

// create saves a favorite through the API and returns its id.
func (f *fixture) create(t *testing.T, target string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/api/favorites/from-token", tokenBody(target))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var fav domain.Favorite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fav))
	return fav.ID
}

type pinBody struct {
	Success bool   `json:"success"`
	Reason  string `json:"reason"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

func decodePin(t *testing.T, rec *httptest.ResponseRecorder) pinBody {
	t.Helper()
	var b pinBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b), rec.Body.String())
	return b
}

func TestPinLimitOverHTTP(t *testing.T) {
	f := newFixture(t)

	ids := make([]string, 6)
	for i := range ids {
		ids[i] = f.create(t, fmt.Sprintf("api://svc-%d", i))
	}
	for _, id := range ids[:5] {
		rec := f.do(t, http.MethodPost, "/api/favorites/"+id+"/pin", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.True(t, decodePin(t, rec).Success)
	}

	rec := f.do(t, http.MethodPost, "/api/favorites/"+ids[5]+"/pin", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	got := decodePin(t, rec)
	assert.False(t, got.Success)
	assert.Equal(t, "limit", got.Reason)
	assert.Equal(t, "Unpin another token first", got.Message)

	// Re-pinning an already pinned favorite at the cap is fine.
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/api/favorites/"+ids[0]+"/pin", "").Code)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/favorites/"+ids[1]+"/pin", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodPut, "/api/favorites/"+ids[5]+"/pinned", `{"pinned":true}`).Code)

	rec = f.do(t, http.MethodGet, "/api/favorites/pinned", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var pinned struct {
		Favorites []domain.Favorite `json:"favorites"`
		Count     int               `json:"count"`
		Max       int               `json:"max"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pinned))
	assert.Equal(t, 5, pinned.Count)
	assert.Equal(t, domain.MaxPinned, pinned.Max)
	assert.Equal(t, ids[5], pinned.Favorites[0].ID, "most recently pinned first")
}

func TestPinNotFound(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/favorites/nope/pin", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodePin(t, rec).Reason)

	// Unpinning something that does not exist succeeds.
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodDelete, "/api/favorites/nope/pin", "").Code)
}

func TestPinFromToken(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/favorites/pin-from-token", tokenBody("api://new"))
	require.Equal(t, http.StatusOK, rec.Code)
	created := decodePin(t, rec)
	require.True(t, created.Success)
	require.NotEmpty(t, created.ID)

	// Same natural key pins the same favorite.
	rec = f.do(t, http.MethodPost, "/api/favorites/pin-from-token", tokenBody("api://new"))
	assert.Equal(t, created.ID, decodePin(t, rec).ID)
	assert.Equal(t, 1, f.deps.Registry.Count())
}

func TestFromTokenResolvesAppAndRejectsDuplicates(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/favorites/from-token", tokenBody("api://billing"))
	require.Equal(t, http.StatusCreated, rec.Code)
	var fav domain.Favorite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fav))
	assert.Equal(t, "Billing", fav.AppName)
	assert.Equal(t, "#0af", fav.AppColor)
	assert.Equal(t, int64(1), fav.UseCount)

	rec = f.do(t, http.MethodPost, "/api/favorites/from-token", tokenBody(" api://billing "))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"error":"duplicate","id":%q}`, fav.ID), rec.Body.String())
}

func TestCreateFavorite(t *testing.T) {
	at := time.Date(2025, 5, 4, 3, 2, 1, 0, time.UTC)
	f := newFixture(t, func(d *deps.Deps) {
		d.Registry = favorites.New(d.Store, favorites.WithClock(func() time.Time { return at }))
		require.NoError(t, d.Registry.Load(context.Background()))
	})

	rec := f.do(t, http.MethodPost, "/api/favorites", `{"tokenType":"UserToken","target":"User.Read"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var fav domain.Favorite
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fav))
	assert.NotEmpty(t, fav.ID)
	assert.True(t, at.Equal(fav.CreatedAt))
	assert.True(t, at.Equal(fav.LastUsedAt))

	rec = f.do(t, http.MethodPost, "/api/favorites", `{"tokenType":"UserToken","target":" User.Read"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"error":"duplicate","id":%q}`, fav.ID), rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/favorites", `{"tokenType":"Refresh","target":"x"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestConcurrentCreatesKeepKeyUnique(t *testing.T) {
	f := newFixture(t)

	codes := make(chan int, 24)
	var wg sync.WaitGroup
	for i := 0; i < cap(codes); i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			codes <- f.do(t, http.MethodPost, "/api/favorites/from-token", tokenBody("api://race")).Code
		}()
	}
	wg.Wait()
	close(codes)

	created := 0
	for code := range codes {
		if code == http.StatusCreated {
			created++
			continue
		}
		assert.Equal(t, http.StatusConflict, code)
	}
	assert.Equal(t, 1, created)
	assert.Equal(t, 1, f.deps.Registry.Count())
}

func TestBadRequests(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "api://x")

	tests := []struct {
		name, method, path, body string
	}{
		{"broken json", http.MethodPost, "/api/favorites/from-token", `{"token":`},
		{"empty body", http.MethodPost, "/api/favorites/delete", ""},
		{"bad token type", http.MethodPost, "/api/favorites/pin-from-token", `{"token":{"tokenType":"Nope","target":"x"}}`},
		{"pinned missing", http.MethodPut, "/api/favorites/" + id + "/pinned", `{}`},
		{"match without type", http.MethodGet, "/api/favorites/match?target=x", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, http.StatusBadRequest, f.do(t, tt.method, tt.path, tt.body).Code)
		})
	}
}

func TestMatchAndGet(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "api://graph")

	rec := f.do(t, http.MethodGet, "/api/favorites/match?tokenType=AppToken&target=api://graph", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	assert.Equal(t, http.StatusNotFound,
		f.do(t, http.MethodGet, "/api/favorites/match?tokenType=UserToken&target=api://graph", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/api/favorites/"+id, "").Code)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/api/favorites/missing", "").Code)
}

func TestUpdateUseAndDelete(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "api://a")
	b := f.create(t, "api://b")
	c := f.create(t, "api://c")

	rec := f.do(t, http.MethodPatch, "/api/favorites/"+a, `{"name":"renamed","tags":["prod"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"renamed"`)
	got, _ := f.deps.Registry.Get(a)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, []string{"prod"}, got.Tags)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPatch, "/api/favorites/missing", `{"name":"x"}`).Code)

	rec = f.do(t, http.MethodGet, "/api/favorites?tag=prod", "")
	assert.Contains(t, rec.Body.String(), `"count":1`)
	rec = f.do(t, http.MethodGet, "/api/favorites?q=renamed", "")
	assert.Contains(t, rec.Body.String(), `"count":1`)

	rec = f.do(t, http.MethodPost, "/api/favorites/"+b+"/use", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"useCount":2`)
	got, _ = f.deps.Registry.Get(b)
	assert.Equal(t, int64(2), got.UseCount)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/api/favorites/missing/use", "").Code)

	rec = f.do(t, http.MethodDelete, "/api/favorites/"+a, "")
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())
	rec = f.do(t, http.MethodDelete, "/api/favorites/"+a, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"deleted":0}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/favorites/delete", fmt.Sprintf(`{"ids":[%q,"missing"]}`, b))
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())

	rec = f.do(t, http.MethodPost, "/api/favorites/delete-by-owner", `{"ownerIds":["app-1"]}`)
	assert.JSONEq(t, `{"deleted":1}`, rec.Body.String())
	_, ok := f.deps.Registry.Get(c)
	assert.False(t, ok)
}

func TestClear(t *testing.T) {
	f := newFixture(t)
	f.create(t, "api://a")

	assert.Equal(t, http.StatusNoContent, f.do(t, http.MethodDelete, "/api/favorites", "").Code)
	assert.Zero(t, f.deps.Registry.Count())
}

func TestPersistFailureIs500(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "api://a")
	f.store.fail.Store(true)

	rec := f.do(t, http.MethodPost, "/api/favorites/"+id+"/pin", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	got, _ := f.deps.Registry.Get(id)
	assert.False(t, got.IsPinned, "failed save leaves state untouched")
}

func TestProbes(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/readyz", "").Code)

	rec := f.do(t, http.MethodGet, "/infra", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"ok"`)
	assert.NotContains(t, rec.Body.String(), `"keys"`)

	f.create(t, "api://a")
	assert.Contains(t, f.do(t, http.MethodGet, "/infra", "").Body.String(), `"keys":["favorites"]`)

	notLoaded := newFixture(t, func(d *deps.Deps) {
		d.Registry = favorites.New(memory.New())
	})
	assert.Equal(t, http.StatusServiceUnavailable, notLoaded.do(t, http.MethodGet, "/readyz", "").Code)
	assert.Contains(t, notLoaded.do(t, http.MethodGet, "/infra", "").Body.String(), `"mode":"critical"`)
}

func TestAppsAndReload(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/apps", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Billing"`)
	assert.Equal(t, http.StatusNotFound, f.do(t, http.MethodPost, "/reload", "").Code)

	trigger := make(chan struct{}, 1)
	withTrigger := newFixture(t, func(d *deps.Deps) { d.ReloadTrigger = trigger })
	assert.Equal(t, http.StatusAccepted, withTrigger.do(t, http.MethodPost, "/reload", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, withTrigger.do(t, http.MethodPost, "/reload", "").Code)

	disabled := newFixture(t, func(d *deps.Deps) { d.Catalog = nil })
	assert.Contains(t, disabled.do(t, http.MethodGet, "/api/apps", "").Body.String(), `"enabled":false`)
}

func TestMetricsEndpoint(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/api/favorites/missing/pin", "")

	rec := f.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tokendock_pin_attempts_total{result="not_found"} 1`)
}

func TestCIDRAllowList(t *testing.T) {
	f := newFixture(t, func(d *deps.Deps) { d.AllowedCIDRS = []string{"127.0.0.1/32"} })

	// httptest requests come from 192.0.2.1.
	assert.Equal(t, http.StatusForbidden, f.do(t, http.MethodGet, "/api/favorites", "").Code)
}

func readEvent(t *testing.T, br *bufio.Reader) favorites.Event {
	t.Helper()
	var ev favorites.Event
	var name string
	for {
		line, err := br.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case line == "" && name != "":
			return ev
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &ev))
		}
	}
}

func TestEventStream(t *testing.T) {
	f := newFixture(t)
	id := f.create(t, "api://a")

	srv := httptest.NewServer(f.h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	br := bufio.NewReader(resp.Body)
	hello := readEvent(t, br)
	assert.Equal(t, favorites.EventKind("hello"), hello.Kind)

	_, err = f.deps.Registry.Pin(context.Background(), id)
	require.NoError(t, err)

	ev := readEvent(t, br)
	assert.Equal(t, favorites.EventPinned, ev.Kind)
	assert.Equal(t, []string{id}, ev.IDs)
	assert.Greater(t, ev.Version, hello.Version)
}
