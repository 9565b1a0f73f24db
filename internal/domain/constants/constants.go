// Package constants holds configuration values shared across layers.
package constants

const (
	// EnvDevelop is the env.env value used on developer machines.
	EnvDevelop = "develop"

	PubSubProviderLocal  = "local"
	PubSubProviderGoogle = "google"

	// CardConfirmationAsync leaves cards pending until the card worker confirms them.
	CardConfirmationAsync = "async"
	// CardConfirmationSync confirms cards inside the request.
	CardConfirmationSync = "sync"
)
