package api

import (
	"io"
	"net/http"
	"strings"

	"github.com/ignite/mailing-admin/internal/pkg/httputil"
	"github.com/ignite/mailing-admin/internal/service/user"
)

// maxUploadBody bounds the raw request including multipart framing.
const maxUploadBody = user.MaxAvatarBytes + 1<<20

//	GET /api/profile
func (h *Handlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.profiles.Profile(r.Context(), identity(r))
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, u)
}

//	PUT /api/profile
func (h *Handlers) HandleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var in user.ProfileInput
	if !httputil.Decode(w, r, &in) {
		return
	}
	u, err := h.profiles.UpdateProfile(r.Context(), identity(r), in)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, u)
}

// HandleUploadAvatar accepts either a multipart form with an "avatar" file
// field or the raw image as the request body.
//
//	PUT /api/profile/avatar
func (h *Handlers) HandleUploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		if err := r.ParseMultipartForm(user.MaxAvatarBytes); err != nil {
			httputil.BadRequest(w, "invalid multipart form: "+err.Error())
			return
		}
		f, _, err := r.FormFile("avatar")
		if err != nil {
			httputil.BadRequest(w, "missing avatar file")
			return
		}
		defer f.Close()
		src = f
	}

	u, err := h.profiles.UploadAvatar(r.Context(), identity(r), src)
	if err != nil {
		httputil.Fail(w, h.log, err)
		return
	}
	httputil.OK(w, u)
}
