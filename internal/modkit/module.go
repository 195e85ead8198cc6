package modkit

import "guildaudit/internal/modkit/httpkit"

// Module is the minimal contract service modules satisfy so binaries can
// mount them uniformly
type Module interface {
	Name() string
	Prefix() string
	MountRoutes(r httpkit.Router)
}
