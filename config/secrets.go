package config

import (
	"os"
	"strings"
)

// Secrets looks up environment-scoped credentials by name.
type Secrets interface {
	Lookup(name string) string
}

// EnvSecrets reads secrets from the process environment.
type EnvSecrets struct{}

func (EnvSecrets) Lookup(name string) string {
	if name == "" {
		return ""
	}
	return strings.TrimSpace(os.Getenv(name))
}

// MapSecrets is a fixed secret set, handy for tests and one-off runs.
type MapSecrets map[string]string

func (m MapSecrets) Lookup(name string) string { return strings.TrimSpace(m[name]) }

// APIKey resolves the credential of a gateway through s.
func (g GatewayConfig) APIKey(s Secrets) string {
	if s == nil {
		return ""
	}
	return s.Lookup(g.APIKeyEnv)
}
