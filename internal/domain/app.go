package domain

import "time"

// App is an app registration known to the catalog.
// Favorites reference it through Favorite.AppID; removing an App cascades
// to every favorite it owns.
type App struct {
	// ID is the stable identifier favorites point to.
	ID string `json:"id"`

	// Name and Color are carried into favorites for display.
	Name  string `json:"name"`
	Color string `json:"color,omitempty"`

	// ClientID and TenantID identify the Entra ID registration.
	ClientID string `json:"clientId"`
	TenantID string `json:"tenantId,omitempty"`

	// Sources indicates where this app was discovered from.
	// Example: apps-file
	Sources []string `json:"sources,omitempty"`

	// LoadedAt is the time of the reload that produced this entry.
	LoadedAt time.Time `json:"loadedAt"`
}
