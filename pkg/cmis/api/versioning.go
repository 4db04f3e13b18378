package api

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/simple-cmis/pkg/cmis/service"
)

// CheckInRequest is the request body for checking in a PWC
type CheckInRequest struct {
	Major      bool           `json:"major"`
	Comment    string         `json:"comment"`
	Properties map[string]any `json:"properties"`
	Content    *ContentBody   `json:"content,omitempty"`
}

// CheckOut creates the private working copy of a document
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	pwc, err := h.service.CheckOut(r.Context(), repositoryID(r), objectID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, pwc)
}

// CheckIn turns the PWC into a new version
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	var req CheckInRequest
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			h.fail(w, r, err)
			return
		}
	}
	obj, err := h.service.CheckIn(r.Context(), repositoryID(r), objectID(r), service.CheckInRequest{
		Major:      req.Major,
		Comment:    req.Comment,
		Properties: req.Properties,
		Content:    req.Content.input(),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}

// CancelCheckOut discards the PWC of a document
func (h *Handler) CancelCheckOut(w http.ResponseWriter, r *http.Request) {
	if err := h.service.CancelCheckOut(r.Context(), repositoryID(r), objectID(r)); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AllVersions lists the versions of a document
func (h *Handler) AllVersions(w http.ResponseWriter, r *http.Request) {
	versions, err := h.service.AllVersions(r.Context(), repositoryID(r), objectID(r), r.URL.Query().Get("filter"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, versions)
}

// LatestVersion returns the latest (major) version of a document
func (h *Handler) LatestVersion(w http.ResponseWriter, r *http.Request) {
	major, err := queryBool(r, "major")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	obj, err := h.service.ObjectOfLatestVersion(r.Context(), repositoryID(r), objectID(r), major, r.URL.Query().Get("filter"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}
