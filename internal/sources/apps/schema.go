package apps

// AppsConfig is the top-level structure of apps.yaml.
//
//	apps:
//	  - id: billing
//	    name: Billing API
//	    color: "#7c3aed"
//	    clientId: 00000000-0000-0000-0000-000000000001
//	    tenantId: contoso.onmicrosoft.com
type AppsConfig struct {
	Apps []AppProps `yaml:"apps"`
}

// AppProps describes one app registration.
type AppProps struct {
	ID       string `yaml:"id"`
	Name     string `yaml:"name,omitempty"`
	Color    string `yaml:"color,omitempty"`
	ClientID string `yaml:"clientId"`
	TenantID string `yaml:"tenantId,omitempty"`
}
