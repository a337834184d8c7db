package lua

import (
	"github.com/dokzlo13/irlightd/internal/host"
)

// RuntimeDeps groups all dependencies needed by Lua runtime.
type RuntimeDeps struct {
	Lights         *host.LightSet
	WebhookEnabled bool
	// BaseDir resolves relative script paths, usually the config directory.
	BaseDir string
}
