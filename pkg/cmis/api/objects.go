package api

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/service"
)

// ContentBody is inline content in a JSON request. Data is base64 encoded.
type ContentBody struct {
	Data     []byte `json:"data"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name"`
}

func (c *ContentBody) input() *service.ContentInput {
	if c == nil {
		return nil
	}
	return &service.ContentInput{Reader: bytes.NewReader(c.Data), MimeType: c.MimeType, FileName: c.FileName}
}

// CreateFolderRequest is the request body for creating a folder
type CreateFolderRequest struct {
	ParentID   string         `json:"parent_id"`
	TypeID     string         `json:"type_id"`
	Properties map[string]any `json:"properties"`
	ACL        []acl.Ace      `json:"acl,omitempty"`
}

// CreateDocumentRequest is the request body for creating a document
type CreateDocumentRequest struct {
	ParentID        string               `json:"parent_id"`
	TypeID          string               `json:"type_id"`
	Properties      map[string]any       `json:"properties"`
	Content         *ContentBody         `json:"content,omitempty"`
	VersioningState cmis.VersioningState `json:"versioning_state,omitempty"`
	ACL             []acl.Ace            `json:"acl,omitempty"`
}

// CreateRelationshipRequest is the request body for creating a relationship
type CreateRelationshipRequest struct {
	TypeID     string         `json:"type_id"`
	SourceID   string         `json:"source_id"`
	TargetID   string         `json:"target_id"`
	Properties map[string]any `json:"properties"`
}

// CreatePolicyRequest is the request body for creating a policy
type CreatePolicyRequest struct {
	TypeID     string         `json:"type_id"`
	Properties map[string]any `json:"properties"`
}

// UpdatePropertiesRequest is the request body for changing properties
type UpdatePropertiesRequest struct {
	ChangeToken string         `json:"change_token"`
	Properties  map[string]any `json:"properties"`
}

// MoveRequest is the request body for moving an object
type MoveRequest struct {
	TargetFolderID string `json:"target_folder_id"`
	SourceFolderID string `json:"source_folder_id"`
}

// FolderRequest names a folder to file an object in
type FolderRequest struct {
	FolderID string `json:"folder_id"`
}

// DeleteTreeResponse lists the objects a tree delete left behind
type DeleteTreeResponse struct {
	Failed []string `json:"failed"`
}

// CreateFolder creates a folder
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	obj, err := h.service.CreateFolder(r.Context(), repositoryID(r), service.CreateFolderRequest{
		ParentID:   req.ParentID,
		TypeID:     req.TypeID,
		Properties: req.Properties,
		ACL:        req.ACL,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Folder created", "repository_id", repositoryID(r), "object_id", obj.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, obj)
}

// CreateDocument creates a document with optional inline content
func (h *Handler) CreateDocument(w http.ResponseWriter, r *http.Request) {
	var req CreateDocumentRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	obj, err := h.service.CreateDocument(r.Context(), repositoryID(r), service.CreateDocumentRequest{
		ParentID:        req.ParentID,
		TypeID:          req.TypeID,
		Properties:      req.Properties,
		Content:         req.Content.input(),
		VersioningState: req.VersioningState,
		ACL:             req.ACL,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Document created", "repository_id", repositoryID(r), "object_id", obj.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, obj)
}

// CreatePolicy creates a policy
func (h *Handler) CreatePolicy(w http.ResponseWriter, r *http.Request) {
	var req CreatePolicyRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	obj, err := h.service.CreatePolicy(r.Context(), repositoryID(r), service.CreatePolicyRequest{
		TypeID:     req.TypeID,
		Properties: req.Properties,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, obj)
}

// CreateRelationship creates a relationship between two objects
func (h *Handler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	var req CreateRelationshipRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	obj, err := h.service.CreateRelationship(r.Context(), repositoryID(r), service.CreateRelationshipRequest{
		TypeID:     req.TypeID,
		SourceID:   req.SourceID,
		TargetID:   req.TargetID,
		Properties: req.Properties,
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, obj)
}

// GetObject returns an object
func (h *Handler) GetObject(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.GetObject(r.Context(), repositoryID(r), objectID(r), r.URL.Query().Get("filter"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}

// GetObjectByPath resolves the path in the p query parameter
func (h *Handler) GetObjectByPath(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("p")
	if path == "" {
		h.fail(w, r, cmis.Errorf(cmis.ErrInvalidArgument, "path parameter p is required"))
		return
	}
	obj, err := h.service.GetObjectByPath(r.Context(), repositoryID(r), path, r.URL.Query().Get("filter"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}

// UpdateProperties changes the properties of an object
func (h *Handler) UpdateProperties(w http.ResponseWriter, r *http.Request) {
	var req UpdatePropertiesRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	obj, err := h.service.UpdateProperties(r.Context(), repositoryID(r), objectID(r), req.ChangeToken, req.Properties)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}

// MoveObject moves an object to another folder
func (h *Handler) MoveObject(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	obj, err := h.service.MoveObject(r.Context(), repositoryID(r), objectID(r), req.TargetFolderID, req.SourceFolderID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}

// DeleteObject deletes an object
func (h *Handler) DeleteObject(w http.ResponseWriter, r *http.Request) {
	allVersions, err := queryBool(r, "allVersions")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if err := h.service.DeleteObject(r.Context(), repositoryID(r), objectID(r), allVersions); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteTree deletes a folder and everything below it
func (h *Handler) DeleteTree(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := service.DeleteTreeRequest{AllVersions: true, Unfile: cmis.UnfileObject(q.Get("unfile"))}
	if q.Get("allVersions") != "" {
		v, err := queryBool(r, "allVersions")
		if err != nil {
			h.fail(w, r, err)
			return
		}
		req.AllVersions = v
	}
	cont, err := queryBool(r, "continueOnFailure")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	req.ContinueOnFailure = cont

	failed, err := h.service.DeleteTree(r.Context(), repositoryID(r), objectID(r), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if failed == nil {
		failed = []string{}
	}
	render.JSON(w, r, DeleteTreeResponse{Failed: failed})
}

// Children lists the children of a folder
func (h *Handler) Children(w http.ResponseWriter, r *http.Request) {
	maxItems, err := queryInt(r, "maxItems", -1)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	skipCount, err := queryInt(r, "skipCount", 0)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.service.Children(r.Context(), repositoryID(r), objectID(r), maxItems, skipCount, r.URL.Query().Get("filter"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, page)
}

// Descendants returns the tree below a folder
func (h *Handler) Descendants(w http.ResponseWriter, r *http.Request) {
	depth, err := queryInt(r, "depth", -1)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	foldersOnly, err := queryBool(r, "foldersOnly")
	if err != nil {
		h.fail(w, r, err)
		return
	}
	tree, err := h.service.Descendants(r.Context(), repositoryID(r), objectID(r), depth, foldersOnly, r.URL.Query().Get("filter"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, tree)
}

// FolderParent returns the parent of a folder
func (h *Handler) FolderParent(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.FolderParent(r.Context(), repositoryID(r), objectID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}

// ObjectParents returns the folders an object is filed in
func (h *Handler) ObjectParents(w http.ResponseWriter, r *http.Request) {
	parents, err := h.service.ObjectParents(r.Context(), repositoryID(r), objectID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, parents)
}

// AddObjectToFolder files an object in another folder
func (h *Handler) AddObjectToFolder(w http.ResponseWriter, r *http.Request) {
	var req FolderRequest
	if err := decode(r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	obj, err := h.service.AddObjectToFolder(r.Context(), repositoryID(r), objectID(r), req.FolderID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}

// RemoveObjectFromFolder removes an object from one folder, or from all
func (h *Handler) RemoveObjectFromFolder(w http.ResponseWriter, r *http.Request) {
	obj, err := h.service.RemoveObjectFromFolder(r.Context(), repositoryID(r), objectID(r), chi.URLParam(r, "folderID"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, obj)
}

// CheckedOut lists the private working copies of a repository
func (h *Handler) CheckedOut(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	docs, err := h.service.CheckedOutDocs(r.Context(), repositoryID(r), q.Get("folderId"), q.Get("filter"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	render.JSON(w, r, docs)
}
