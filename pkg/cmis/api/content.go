package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/render"

	"github.com/tendant/simple-cmis/pkg/cmis/service"
)

// FileNameHeader carries the file name of an uploaded content stream.
const FileNameHeader = "X-File-Name"

// GetContent streams the content of a document
func (h *Handler) GetContent(w http.ResponseWriter, r *http.Request) {
	cs, err := h.service.GetContentStream(r.Context(), repositoryID(r), objectID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	defer cs.Body.Close()

	w.Header().Set("Content-Type", cs.Stream.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(cs.Stream.Length, 10))
	if cs.Stream.FileName != "" {
		w.Header().Set("Content-Disposition", "attachment; filename=\""+cs.Stream.FileName+"\"")
	}
	if _, err := io.Copy(w, cs.Body); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to stream content", "object_id", objectID(r), "error", err)
	}
}

// SetContent replaces the content of a document with the request body
func (h *Handler) SetContent(w http.ResponseWriter, r *http.Request) {
	overwrite := true
	if r.URL.Query().Get("overwrite") != "" {
		v, err := queryBool(r, "overwrite")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		overwrite = v
	}
	in := &service.ContentInput{
		Reader:   r.Body,
		MimeType: r.Header.Get("Content-Type"),
		FileName: r.Header.Get(FileNameHeader),
	}
	obj, err := h.service.SetContentStream(r.Context(), repositoryID(r), objectID(r), r.URL.Query().Get("changeToken"), in, overwrite)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}

// DeleteContent removes the content of a document
func (h *Handler) DeleteContent(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.DeleteContentStream(r.Context(), repositoryID(r), objectID(r), r.URL.Query().Get("changeToken"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}
