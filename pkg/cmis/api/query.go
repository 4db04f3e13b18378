package api

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/simple-cmis/pkg/cmis/service"
)

// QueryRequest is the request body for a CMIS-SQL query
type QueryRequest struct {
	Statement         string `json:"statement"`
	SearchAllVersions bool   `json:"search_all_versions"`
	MaxItems          *int   `json:"max_items,omitempty"`
	SkipCount         int    `json:"skip_count"`
}

// Query runs a statement against a repository
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	res, err := h.service.Query(r.Context(), repositoryID(r), service.QueryRequest{
		Statement:         req.Statement,
		SearchAllVersions: req.SearchAllVersions,
		MaxItems:          req.MaxItems,
		SkipCount:         req.SkipCount,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, res)
}
