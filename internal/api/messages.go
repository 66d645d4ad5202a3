package api

import (
	"net/http"

	"github.com/ignite/mailing-admin/internal/pkg/httputil"
	"github.com/ignite/mailing-admin/internal/service/message"
)

//	GET /api/messages
func (h *Handlers) HandleListMessages(w http.ResponseWriter, r *http.Request) {
	out, err := h.messages.List(r.Context(), identity(r))
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, out)
}

//	GET /api/messages/{id}
func (h *Handlers) HandleGetMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.messages.Get(r.Context(), identity(r), id)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, m)
}

//	POST /api/messages
func (h *Handlers) HandleCreateMessage(w http.ResponseWriter, r *http.Request) {
	var in message.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	m, err := h.messages.Create(r.Context(), identity(r), in)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.Created(w, m)
}

//	PUT /api/messages/{id}
func (h *Handlers) HandleUpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in message.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	m, err := h.messages.Update(r.Context(), identity(r), id, in)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, m)
}

// HandleDeleteMessage removes a message together with the mailings that use it.
//
//	DELETE /api/messages/{id}
func (h *Handlers) HandleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.messages.Delete(r.Context(), identity(r), id); err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.NoContent(w)
}
