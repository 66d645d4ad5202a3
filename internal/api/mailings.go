package api

import (
	"net/http"

	"github.com/ignite/mailing-admin/internal/pkg/httputil"
	"github.com/ignite/mailing-admin/internal/service/mailing"
)

//	GET /api/mailings
func (h *Handlers) HandleListMailings(w http.ResponseWriter, r *http.Request) {
	out, err := h.mailings.List(r.Context(), identity(r))
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, out)
}

// HandleMailingChoices lists the messages and clients the caller may attach
// to a mailing.
//
//	GET /api/mailings/choices
func (h *Handlers) HandleMailingChoices(w http.ResponseWriter, r *http.Request) {
	c, err := h.mailings.Choices(r.Context(), identity(r))
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, c)
}

//	GET /api/mailings/{id}
func (h *Handlers) HandleGetMailing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	m, err := h.mailings.Get(r.Context(), identity(r), id)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, m)
}

//	POST /api/mailings
func (h *Handlers) HandleCreateMailing(w http.ResponseWriter, r *http.Request) {
	var in mailing.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	m, err := h.mailings.Create(r.Context(), identity(r), in)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.Created(w, m)
}

//	PUT /api/mailings/{id}
func (h *Handlers) HandleUpdateMailing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in mailing.Input
	if !httputil.Decode(w, r, &in) {
		return
	}
	m, err := h.mailings.Update(r.Context(), identity(r), id, in)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, m)
}

//	DELETE /api/mailings/{id}
func (h *Handlers) HandleDeleteMailing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := h.mailings.Delete(r.Context(), identity(r), id); err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.NoContent(w)
}

// HandleSendMailing delivers the mailing to every recipient and reports the
// per-recipient tally. Individual delivery failures do not fail the request.
//
//	POST /api/mailings/{id}/send
func (h *Handlers) HandleSendMailing(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	summary, err := h.dispatcher.Dispatch(r.Context(), identity(r), id)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, summary)
}

// HandleListAttempts returns the delivery log of a mailing, newest first.
// ?status=success|failed narrows the result.
//
//	GET /api/mailings/{id}/attempts
func (h *Handlers) HandleListAttempts(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.mailings.Attempts(r.Context(), identity(r), id, r.URL.Query().Get("status"))
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, out)
}
