package apps

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Loader reads apps.yaml from disk.
type Loader struct {
	filePath string
}

func NewLoader(filePath string) *Loader {
	return &Loader{filePath: filePath}
}

// Path is the file the loader reads.
func (l *Loader) Path() string { return l.filePath }

// Load reads and parses the apps file.
// {{VAR}} placeholders are replaced by the value of the environment variable VAR.
func (l *Loader) Load() (AppsConfig, error) {
	data, err := os.ReadFile(l.filePath)
	if err != nil {
		return AppsConfig{}, fmt.Errorf("failed to read apps file: %w", err)
	}

	data = expandTemplateVariables(data)

	var config AppsConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return AppsConfig{}, fmt.Errorf("failed to parse apps yaml: %w", err)
	}
	return config, nil
}

var templateVar = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// expandTemplateVariables substitutes {{VAR}} with os.Getenv("VAR").
// Unset variables become empty strings.
func expandTemplateVariables(data []byte) []byte {
	return templateVar.ReplaceAllFunc(data, func(m []byte) []byte {
		name := templateVar.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
