package api

import (
	"net/http"

	"github.com/ignite/mailing-admin/internal/pkg/httputil"
	"github.com/ignite/mailing-admin/internal/service/client"
)

// HandleListClients lists clients visible to the caller.
//
//	GET /api/clients
func (h *Handlers) HandleListClients(w http.ResponseWriter, r *http.Request) {
	out, err := h.clients.List(r.Context(), identity(r))
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, out)
}

// HandleGetClient returns one client.
//
//	GET /api/clients/{id}
func (h *Handlers) HandleGetClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	c, err := h.clients.Get(r.Context(), identity(r), id)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, c)
}

//	POST /api/clients
func (h *Handlers) HandleCreateClient(w http.ResponseWriter, r *http.Request) {
	var in client.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.clients.Create(r.Context(), identity(r), in)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.Created(w, c)
}

//	PUT /api/clients/{id}
func (h *Handlers) HandleUpdateClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in client.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	c, err := h.clients.Update(r.Context(), identity(r), id, in)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, c)
}

//	DELETE /api/clients/{id}
func (h *Handlers) HandleDeleteClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.clients.Delete(r.Context(), identity(r), id); err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.NoContent(w)
}
