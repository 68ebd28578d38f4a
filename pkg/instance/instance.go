package instance

import (
	"os"

	"github.com/angelmondragon/storefront-backend/pkg/env"
)

// EnvInstanceID overrides the identifier workers log under.
const EnvInstanceID = "STOREFRONT_INSTANCE_ID"

// GetID returns the configured instance id, then the hostname, then a default.
func GetID() string {
	if id := env.Get(EnvInstanceID, ""); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return "worker-0"
}
