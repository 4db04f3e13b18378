package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/jwtauth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/query"
	"github.com/tendant/simple-cmis/pkg/cmis/service"
	"github.com/tendant/simple-cmis/pkg/cmis/storage/memory"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
)

const testSecret = "test-secret"

type testServer struct {
	router http.Handler
	rootID string
}

// setupHandlerTest creates a router over one in-memory repository named "test"
func setupHandlerTest(t *testing.T, opts ...Option) *testServer {
	t.Helper()
	m := store.NewManager()
	repo, err := m.AddRepository(store.RepositoryConfig{ID: "test"})
	require.NoError(t, err)

	svc, err := service.New(
		service.WithManager(m),
		service.WithBlobStore(memory.New()),
	)
	require.NoError(t, err)

	router := chi.NewRouter()
	router.Mount("/repositories", NewHandler(svc, opts...).Routes())
	return &testServer{router: router, rootID: repo.Store.RootFolderID()}
}

func (s *testServer) do(t *testing.T, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	if _, raw := body.([]byte); !raw && body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeBody[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func (s *testServer) createFolder(t *testing.T, parentID, name string, aces ...acl.Ace) store.Object {
	t.Helper()
	w := s.do(t, http.MethodPost, "/repositories/test/folders", CreateFolderRequest{
		ParentID:   parentID,
		Properties: map[string]any{cmis.PropName: name},
		ACL:        aces,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decodeBody[store.Object](t, w)
}

func TestHandler_Repositories(t *testing.T) {
	s := setupHandlerTest(t)

	w := s.do(t, http.MethodGet, "/repositories/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	infos := decodeBody[[]cmis.RepositoryInfo](t, w)
	require.Len(t, infos, 1)
	assert.Equal(t, s.rootID, infos[0].RootFolderID)

	w = s.do(t, http.MethodGet, "/repositories/test", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", decodeBody[cmis.RepositoryInfo](t, w).ID)

	w = s.do(t, http.MethodGet, "/repositories/missing", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "object not found", decodeBody[ErrorResponse](t, w).Kind)
}

func TestHandler_Types(t *testing.T) {
	s := setupHandlerTest(t)

	w := s.do(t, http.MethodGet, "/repositories/test/types", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, w), 4)

	w = s.do(t, http.MethodPost, "/repositories/test/types", CreateTypeRequest{
		ID:          "acme:memo",
		ParentID:    "cmis:document",
		DisplayName: "Memo",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/repositories/test/types/acme:memo", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/repositories/test/types/cmis:document/children", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody[[]map[string]any](t, w), 1)

	w = s.do(t, http.MethodGet, "/repositories/test/types/cmis:document/descendants?depth=x", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandler_DocumentLifecycle(t *testing.T) {
	s := setupHandlerTest(t)
	folder := s.createFolder(t, s.rootID, "docs")

	w := s.do(t, http.MethodPost, "/repositories/test/documents", CreateDocumentRequest{
		ParentID:   folder.ID,
		Properties: map[string]any{cmis.PropName: "readme"},
		Content:    &ContentBody{Data: []byte("hello"), MimeType: "text/plain", FileName: "readme.txt"},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	doc := decodeBody[store.Object](t, w)
	assert.Equal(t, "readme", doc.Name)

	w = s.do(t, http.MethodGet, "/repositories/test/objects/"+doc.ID+"/content", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello", w.Body.String())
	assert.Equal(t, "text/plain", w.Header().Get("Content-Type"))

	w = s.do(t, http.MethodGet, "/repositories/test/path?p=/docs/readme", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, doc.ID, decodeBody[store.Object](t, w).ID)

	w = s.do(t, http.MethodGet, "/repositories/test/objects/"+folder.ID+"/children?maxItems=10", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decodeBody[store.Page](t, w)
	assert.Equal(t, 1, page.NumItems)
	assert.Len(t, page.Objects, 1)

	w = s.do(t, http.MethodGet, "/repositories/test/objects/"+folder.ID+"/children?maxItems=0", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page = decodeBody[store.Page](t, w)
	assert.Equal(t, 1, page.NumItems)
	assert.Empty(t, page.Objects)
	assert.True(t, page.HasMoreItems)

	t.Run("versioning", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/repositories/test/objects/"+doc.ID+"/content", []byte("direct"), "Content-Type", "text/plain")
		assert.Equal(t, http.StatusConflict, w.Code, "versioned documents take content on the PWC only")

		w = s.do(t, http.MethodPost, "/repositories/test/objects/"+doc.ID+"/checkout", nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		pwc := decodeBody[store.Object](t, w)
		assert.True(t, pwc.IsPWC)

		w = s.do(t, http.MethodPut, "/repositories/test/objects/"+pwc.ID+"/content", []byte("second"), "Content-Type", "text/markdown", FileNameHeader, "readme.md")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = s.do(t, http.MethodPost, "/repositories/test/objects/"+pwc.ID+"/checkin", CheckInRequest{Major: true, Comment: "rewrite"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		v2 := decodeBody[store.Object](t, w)
		assert.Equal(t, "2.0", v2.Properties[cmis.PropVersionLabel])

		w = s.do(t, http.MethodGet, "/repositories/test/objects/"+doc.ID+"/versions", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeBody[[]store.Object](t, w), 2)

		w = s.do(t, http.MethodGet, "/repositories/test/objects/"+doc.ID+"/latest", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, v2.ID, decodeBody[store.Object](t, w).ID)

		w = s.do(t, http.MethodGet, "/repositories/test/objects/"+v2.ID+"/content", nil)
		assert.Equal(t, "second", w.Body.String())
		assert.Contains(t, w.Header().Get("Content-Disposition"), "readme.md")

		w = s.do(t, http.MethodPost, "/repositories/test/objects/"+v2.ID+"/cancelcheckout", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("update properties", func(t *testing.T) {
		w := s.do(t, http.MethodPut, "/repositories/test/objects/"+folder.ID+"/properties", UpdatePropertiesRequest{
			ChangeToken: "0",
			Properties:  map[string]any{cmis.PropName: "renamed"},
		})
		assert.Equal(t, http.StatusConflict, w.Code, "stale change token")

		w = s.do(t, http.MethodPut, "/repositories/test/objects/"+folder.ID+"/properties", UpdatePropertiesRequest{
			Properties: map[string]any{cmis.PropName: "renamed"},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "/renamed", decodeBody[store.Object](t, w).Path)
	})

	t.Run("delete tree", func(t *testing.T) {
		w := s.do(t, http.MethodDelete, "/repositories/test/objects/"+folder.ID+"/tree", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Empty(t, decodeBody[DeleteTreeResponse](t, w).Failed)

		w = s.do(t, http.MethodGet, "/repositories/test/objects/"+doc.ID, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandler_Errors(t *testing.T) {
	s := setupHandlerTest(t)

	w := s.do(t, http.MethodPost, "/repositories/test/folders", []byte("{not json"))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodDelete, "/repositories/test/objects/"+s.rootID, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodDelete, "/repositories/test/objects/"+s.rootID+"?allVersions=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodGet, "/repositories/test/path", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/repositories/test/objects/"+s.rootID+"/folders", FolderRequest{FolderID: s.rootID})
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "multi-filing is disabled")
}

func TestHandler_PrincipalHeader(t *testing.T) {
	s := setupHandlerTest(t)
	private := s.createFolder(t, s.rootID, "private", acl.Ace{PrincipalID: "alice", Permission: acl.PermissionAll})
	path := "/repositories/test/objects/" + private.ID

	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, path, nil).Code, "anonymous")
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, path, nil, UserHeader, "bob").Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, nil, UserHeader, "alice").Code)

	w := s.do(t, http.MethodPost, path+"/acl", ApplyACLRequest{Add: []acl.Ace{{PrincipalID: "bob", Permission: acl.PermissionRead}}}, UserHeader, "alice")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Len(t, decodeBody[ACLResponse](t, w).Aces, 2)

	w = s.do(t, http.MethodGet, path+"/acl", nil, UserHeader, "bob")
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, path+"/actions", nil, UserHeader, "bob")
	require.Equal(t, http.StatusOK, w.Code)
	actions := decodeBody[ActionsResponse](t, w).Actions
	assert.Contains(t, actions, service.ActionGetChildren)
	assert.NotContains(t, actions, service.ActionCreateDocument)
}

func TestHandler_JWT(t *testing.T) {
	s := setupHandlerTest(t, WithJWTSecret(testSecret))
	private := s.createFolder(t, s.rootID, "private", acl.Ace{PrincipalID: "alice", Permission: acl.PermissionAll})
	path := "/repositories/test/objects/" + private.ID

	_, token, err := jwtauth.New("HS256", []byte(testSecret), nil).Encode(map[string]interface{}{"sub": "alice"})
	require.NoError(t, err)
	_, forged, err := jwtauth.New("HS256", []byte("other-secret"), nil).Encode(map[string]interface{}{"sub": "alice"})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, path, nil, "Authorization", "Bearer "+token).Code)
	assert.Equal(t, http.StatusUnauthorized, s.do(t, http.MethodGet, path, nil, "Authorization", "Bearer "+forged).Code)
	assert.Equal(t, http.StatusForbidden, s.do(t, http.MethodGet, path, nil, UserHeader, "alice").Code, "the header is ignored when tokens are enabled")
}

func TestHandler_Query(t *testing.T) {
	s := setupHandlerTest(t)
	s.createFolder(t, s.rootID, "alpha")
	s.createFolder(t, s.rootID, "beta")

	w := s.do(t, http.MethodPost, "/repositories/test/query", QueryRequest{
		Statement: "SELECT cmis:name FROM cmis:folder WHERE cmis:name LIKE 'a%'",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decodeBody[query.Result](t, w)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "alpha", res.Rows[0].Values[cmis.PropName])

	zero := 0
	w = s.do(t, http.MethodPost, "/repositories/test/query", QueryRequest{
		Statement: "SELECT cmis:name FROM cmis:folder",
		MaxItems:  &zero,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res = decodeBody[query.Result](t, w)
	assert.Empty(t, res.Rows)
	assert.True(t, res.HasMoreItems)

	w = s.do(t, http.MethodPost, "/repositories/test/query", QueryRequest{Statement: "SELECT * FROM nowhere"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{cmis.ErrInvalidArgument, http.StatusBadRequest},
		{cmis.ErrNameConstraintViolation, http.StatusConflict},
		{cmis.ErrConstraint, http.StatusConflict},
		{cmis.ErrObjectNotFound, http.StatusNotFound},
		{cmis.ErrNotSupported, http.StatusMethodNotAllowed},
		{cmis.ErrUpdateConflict, http.StatusConflict},
		{cmis.ErrPermissionDenied, http.StatusForbidden},
		{cmis.ErrVersioning, http.StatusConflict},
		{cmis.ErrContentAlreadyExists, http.StatusConflict},
		{&cmis.RepositoryError{RepositoryID: "r", Op: "getObject", Err: cmis.ErrObjectNotFound}, http.StatusNotFound},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, StatusFor(tt.err))
		})
	}
}
