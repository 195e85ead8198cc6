// Package module implements the roster service module
package module

import (
	"guildaudit/internal/modkit"
	"guildaudit/internal/modkit/httpkit"
	"guildaudit/internal/services/roster/domain"
	rosterhttp "guildaudit/internal/services/roster/http"
	"guildaudit/internal/services/roster/service"
)

// Ports exposed by the roster module
type Ports struct {
	Roster domain.RosterPort
	Syncer domain.SyncerPort
}

// Module implements the roster service module
type Module struct {
	deps  modkit.Deps
	ports Ports
	svc   *service.Svc
}

// New constructs a new roster module
func New(deps modkit.Deps) *Module {
	opts := FromConfig(deps.Cfg)
	svc := service.New(deps, opts.serviceConfig())

	m := &Module{deps: deps, svc: svc}
	m.ports = Ports{
		Roster: svc,
		Syncer: svc,
	}
	return m
}

// Service exposes the concrete service for the sync binary
func (m *Module) Service() *service.Svc { return m.svc }

// Name satisfies modkit.Module
func (m *Module) Name() string { return "roster" }

// Ports exposed by the module
func (m *Module) Ports() any { return m.ports }

// Prefix satisfies modkit.Module; versioning is owned by the binary
func (m *Module) Prefix() string { return "" }

// MountRoutes satisfies modkit.Module
func (m *Module) MountRoutes(r httpkit.Router) {
	rosterhttp.Register(r, m.svc)
}
