package catalog

import (
	"reflect"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
)

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.Count() != 0 {
		t.Errorf("New() should start empty, got %v", c.Count())
	}
	if c.Loaded() {
		t.Error("New() should not report loaded")
	}
}

func TestUpdateReturnsRemoved(t *testing.T) {
	c := New()

	removed := c.Update([]*domain.App{
		{ID: "billing", Name: "Billing"},
		{ID: "ops", Name: "Ops"},
		{ID: "hr", Name: "HR"},
	})
	if len(removed) != 0 {
		t.Errorf("first Update() removed %v, want none", removed)
	}

	removed = c.Update([]*domain.App{
		{ID: "billing", Name: "Billing"},
		{ID: "new", Name: "New"},
	})
	if want := []string{"hr", "ops"}; !reflect.DeepEqual(removed, want) {
		t.Errorf("Update() removed %v, want %v", removed, want)
	}
	if c.Count() != 2 {
		t.Errorf("Update() should overwrite, got %v apps want 2", c.Count())
	}
	if !c.Loaded() || c.GetLastReload().IsZero() {
		t.Error("Update() should mark the catalog loaded")
	}
}

func TestGetAndHas(t *testing.T) {
	c := New()
	c.Update([]*domain.App{{ID: "billing", Name: "Billing", Color: "#123456"}})

	app, ok := c.Get("billing")
	if !ok || app.Color != "#123456" {
		t.Errorf("Get() = %+v, %v", app, ok)
	}
	if c.Has("nope") {
		t.Error("Has() should be false for unknown id")
	}
}

func TestAllIsSorted(t *testing.T) {
	c := New()
	c.Update([]*domain.App{
		{ID: "b", Name: "Zeta"},
		{ID: "a", Name: "Alpha"},
		{ID: "c", Name: "Alpha"},
	})

	var ids []string
	for _, app := range c.All() {
		ids = append(ids, app.ID)
	}
	if want := []string{"a", "c", "b"}; !reflect.DeepEqual(ids, want) {
		t.Errorf("All() order = %v, want %v", ids, want)
	}
}

func TestResolve(t *testing.T) {
	c := New()
	c.Update([]*domain.App{{ID: "billing", Name: "Billing", Color: "#123456"}})

	tests := []struct {
		name      string
		in        domain.TokenContext
		wantName  string
		wantColor string
	}{
		{"fills from catalog", domain.TokenContext{AppID: "billing"}, "Billing", "#123456"},
		{"keeps caller values", domain.TokenContext{AppID: "billing", AppName: "Custom"}, "Custom", "#123456"},
		{"unknown app", domain.TokenContext{AppID: "ghost"}, "", ""},
		{"no app", domain.TokenContext{}, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := c.Resolve(tt.in)
			if got.AppName != tt.wantName || got.AppColor != tt.wantColor {
				t.Errorf("Resolve() = %q/%q, want %q/%q", got.AppName, got.AppColor, tt.wantName, tt.wantColor)
			}
		})
	}
}

func TestConcurrentAccess(t *testing.T) {
	c := New()
	apps := []*domain.App{{ID: "a", Name: "A"}, {ID: "b", Name: "B"}}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.Update(apps)
		}()
		go func() {
			defer wg.Done()
			_ = c.All()
			_ = c.Has("a")
		}()
	}
	wg.Wait()

	if c.Count() != 2 {
		t.Errorf("Count() = %v, want 2", c.Count())
	}
}
