// Package http provides http transport for the roster
package http

import (
	stdhttp "net/http"

	"github.com/go-chi/chi/v5"

	"guildaudit/internal/core/identity"
	"guildaudit/internal/modkit/httpkit"
	"guildaudit/internal/services/roster/domain"
	svc "guildaudit/internal/services/roster/service"
)

// AddInput is the payload for tracking a character
type AddInput struct {
	Name  string `json:"name" validate:"required"`
	Realm string `json:"realm" validate:"required"`
	Note  string `json:"note"`
}

// SyncInput tunes an on-demand audit pass; every field is optional
type SyncInput struct {
	Limit  int  `json:"limit" validate:"omitempty,min=0"`
	Force  bool `json:"force"`
	DryRun bool `json:"dry_run"`
}

// Register mounts roster endpoints on the given router
func Register(r httpkit.Router, s svc.Service) {
	h := &handlers{svc: s}

	httpkit.Get(r, "/roster", h.list)
	httpkit.PostJSON[AddInput](r, "/roster", h.add)
	httpkit.Get(r, "/roster/{realm}/{name}", h.get)
	httpkit.Delete(r, "/roster/{realm}/{name}", h.remove)

	httpkit.PostJSON[SyncInput](r, "/sync", h.sync)
}

type handlers struct{ svc svc.Service }

func (h *handlers) list(r *stdhttp.Request) (any, error) {
	return h.svc.List(r.Context())
}

func (h *handlers) add(r *stdhttp.Request, in AddInput) (any, error) {
	sc, err := h.svc.Add(r.Context(), identity.Character{Name: in.Name, Realm: in.Realm}, in.Note)
	if err != nil {
		return nil, err
	}
	return httpkit.Created(sc), nil
}

func (h *handlers) get(r *stdhttp.Request) (any, error) {
	return h.svc.Get(r.Context(), pathCharacter(r))
}

func (h *handlers) remove(r *stdhttp.Request) (any, error) {
	if err := h.svc.Remove(r.Context(), pathCharacter(r)); err != nil {
		return nil, err
	}
	return httpkit.NoContent(), nil
}

func (h *handlers) sync(r *stdhttp.Request, in SyncInput) (any, error) {
	return h.svc.RunPass(r.Context(), domain.PassOptions{
		Limit:  in.Limit,
		Force:  in.Force,
		DryRun: in.DryRun,
	})
}

func pathCharacter(r *stdhttp.Request) identity.Character {
	return identity.Character{
		Realm: chi.URLParam(r, "realm"),
		Name:  chi.URLParam(r, "name"),
	}
}
