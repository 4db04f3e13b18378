package api

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/service"
)

// ACLResponse is the ACL of an object
type ACLResponse struct {
	Aces []acl.Ace `json:"aces"`
}

// ApplyACLRequest lists the entries to add and remove
type ApplyACLRequest struct {
	Add    []acl.Ace `json:"add"`
	Remove []acl.Ace `json:"remove"`
}

// ActionsResponse lists the allowable actions on an object
type ActionsResponse struct {
	ObjectID string           `json:"object_id"`
	Actions  []service.Action `json:"actions"`
}

func aclResponse(a *acl.Acl) ACLResponse {
	aces := a.Entries()
	if aces == nil {
		aces = []acl.Ace{}
	}
	return ACLResponse{Aces: aces}
}

// GetACL returns the ACL of an object
func (h *Handler) GetACL(w http.ResponseWriter, r *http.Request) {
	a, err := h.service.GetACL(r.Context(), repositoryID(r), objectID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, aclResponse(a))
}

// ApplyACL merges entries into the ACL of an object
func (h *Handler) ApplyACL(w http.ResponseWriter, r *http.Request) {
	var req ApplyACLRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.service.ApplyACL(r.Context(), repositoryID(r), objectID(r), req.Add, req.Remove)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, aclResponse(a))
}

// AllowableActions lists what the caller may do with an object
func (h *Handler) AllowableActions(w http.ResponseWriter, r *http.Request) {
	actions, err := h.service.AllowableActions(r.Context(), repositoryID(r), objectID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, ActionsResponse{ObjectID: objectID(r), Actions: actions.List()})
}
