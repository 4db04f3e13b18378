package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-cmis/pkg/cmis/service"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

// ListRepositories lists the repositories of the server
func (h *Handler) ListRepositories(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, h.service.RepositoryInfos(r.Context()))
}

// GetRepository returns the info of one repository
func (h *Handler) GetRepository(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.RepositoryInfo(r.Context(), repositoryID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, info)
}

// GetType returns a type definition
func (h *Handler) GetType(w http.ResponseWriter, r *http.Request) {
	t, err := h.service.TypeDefinition(r.Context(), repositoryID(r), chi.URLParam(r, "typeID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, t)
}

// TypeChildren lists the direct subtypes of a type, or the base types
func (h *Handler) TypeChildren(w http.ResponseWriter, r *http.Request) {
	includeProps, err := queryBool(r, "includePropertyDefinitions")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	types, err := h.service.TypeChildren(r.Context(), repositoryID(r), chi.URLParam(r, "typeID"), includeProps)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, types)
}

// TypeDescendants returns the type tree below a type
func (h *Handler) TypeDescendants(w http.ResponseWriter, r *http.Request) {
	depth, err := queryInt(r, "depth", -1)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	includeProps, err := queryBool(r, "includePropertyDefinitions")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tree, err := h.service.TypeDescendants(r.Context(), repositoryID(r), chi.URLParam(r, "typeID"), depth, includeProps)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, tree)
}

// CreateTypeRequest is the request body for registering a type
type CreateTypeRequest struct {
	ID          string                        `json:"id"`
	ParentID    string                        `json:"parent_id"`
	DisplayName string                        `json:"display_name"`
	QueryName   string                        `json:"query_name"`
	Description string                        `json:"description"`
	Properties  []*typedef.PropertyDefinition `json:"properties"`
}

// CreateType registers a custom type
func (h *Handler) CreateType(w http.ResponseWriter, r *http.Request) {
	var req CreateTypeRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	t, err := h.service.CreateType(r.Context(), repositoryID(r), service.CreateTypeRequest{
		ID:          req.ID,
		ParentID:    req.ParentID,
		DisplayName: req.DisplayName,
		QueryName:   req.QueryName,
		Description: req.Description,
		Properties:  req.Properties,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, t)
}
