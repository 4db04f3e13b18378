package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(err error) int {
	switch cmis.Kind(err) {
	case cmis.ErrInvalidArgument:
		return http.StatusBadRequest
	case cmis.ErrNameConstraintViolation, cmis.ErrConstraint, cmis.ErrUpdateConflict,
		cmis.ErrVersioning, cmis.ErrContentAlreadyExists:
		return http.StatusConflict
	case cmis.ErrObjectNotFound:
		return http.StatusNotFound
	case cmis.ErrNotSupported:
		return http.StatusMethodNotAllowed
	case cmis.ErrPermissionDenied:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	h.writeError(w, r, err, StatusFor(err))
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, status int) {
	resp := ErrorResponse{Error: err.Error()}
	if kind := cmis.Kind(err); kind != nil {
		resp.Kind = kind.Error()
	}
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	} else {
		var repoErr *cmis.RepositoryError
		op := ""
		if errors.As(err, &repoErr) {
			op = repoErr.Op
		}
		h.logger.DebugContext(r.Context(), "Request rejected", "method", r.Method, "path", r.URL.Path, "op", op, "status", status, "error", err)
	}
	render.Status(r, status)
	render.JSON(w, r, resp)
}
