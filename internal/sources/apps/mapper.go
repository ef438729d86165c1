package apps

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrSnakeDoc/tokendock/internal/domain"
)

// SourceName tags apps discovered from the apps file.
const SourceName = "apps-file"

// ErrNoAppsKey is returned when the file has no top-level "apps" key.
// An explicit empty list ("apps: []") is valid and empties the catalog.
var ErrNoAppsKey = errors.New("apps file has no apps key")

// Mapper converts AppsConfig entries to domain.App.
type Mapper struct {
	now func() time.Time
}

func NewMapper() *Mapper {
	return &Mapper{now: time.Now}
}

// MapApps validates and converts the config. Entries without a client id are
// skipped; the id defaults to the client id; the first entry wins on duplicate ids.
func (m *Mapper) MapApps(config AppsConfig) ([]*domain.App, error) {
	if config.Apps == nil {
		return nil, ErrNoAppsKey
	}

	now := m.now()
	apps := make([]*domain.App, 0, len(config.Apps))
	seen := make(map[string]bool, len(config.Apps))

	for _, props := range config.Apps {
		clientID := strings.TrimSpace(props.ClientID)
		if clientID == "" {
			continue
		}

		id := strings.TrimSpace(props.ID)
		if id == "" {
			id = clientID
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		name := strings.TrimSpace(props.Name)
		if name == "" {
			name = id
		}

		apps = append(apps, &domain.App{
			ID:       id,
			Name:     name,
			Color:    strings.TrimSpace(props.Color),
			ClientID: clientID,
			TenantID: strings.TrimSpace(props.TenantID),
			Sources:  []string{SourceName},
			LoadedAt: now,
		})
	}

	if len(config.Apps) > 0 && len(apps) == 0 {
		return nil, fmt.Errorf("no valid apps found in apps file (%d entries without clientId)", len(config.Apps))
	}
	return apps, nil
}
