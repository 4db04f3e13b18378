package service_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/service"
	"github.com/tendant/simple-cmis/pkg/cmis/storage/memory"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

const repoID = "test"

const testTypes = `
types:
  - id: acme:doc
    parent: cmis:document
    displayName: Plain document
    versionable: false
    properties:
      - id: acme:tags
        type: string
        cardinality: multi
`

type recordedEvent struct {
	kind string
	id   string
}

type recordingSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recordingSink) record(kind, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{kind: kind, id: id})
	return nil
}

func (r *recordingSink) ObjectCreated(ctx context.Context, repositoryID, objectID string) error {
	return r.record("created", objectID)
}

func (r *recordingSink) ObjectUpdated(ctx context.Context, repositoryID, objectID string) error {
	return r.record("updated", objectID)
}

func (r *recordingSink) ObjectDeleted(ctx context.Context, repositoryID, objectID string) error {
	return r.record("deleted", objectID)
}

func (r *recordingSink) has(kind, id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.kind == kind && e.id == id {
			return true
		}
	}
	return false
}

type observation struct {
	op  string
	err error
}

type fakeObserver struct {
	mu  sync.Mutex
	ops []observation
}

func (f *fakeObserver) ObserveOperation(repositoryID, op string, d time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, observation{op: op, err: err})
}

type fixture struct {
	svc      *service.Service
	blobs    *memory.Backend
	events   *recordingSink
	observer *fakeObserver
	rootID   string
}

func newFixture(t *testing.T, opts ...store.Option) *fixture {
	t.Helper()
	types := typedef.NewRegistry()
	_, err := types.LoadYAML(strings.NewReader(testTypes))
	require.NoError(t, err)

	m := store.NewManager()
	repo, err := m.AddRepository(store.RepositoryConfig{ID: repoID, Types: types, Options: opts})
	require.NoError(t, err)

	f := &fixture{
		blobs:    memory.New(),
		events:   &recordingSink{},
		observer: &fakeObserver{},
		rootID:   repo.Store.RootFolderID(),
	}
	f.svc, err = service.New(
		service.WithManager(m),
		service.WithBlobStore(f.blobs),
		service.WithEventSink(f.events),
		service.WithObserver(f.observer),
		service.WithMaxContentSize(64),
	)
	require.NoError(t, err)
	return f
}

func text(s string) *service.ContentInput {
	return &service.ContentInput{Reader: strings.NewReader(s), MimeType: "text/plain", FileName: "a.txt"}
}

func (f *fixture) folder(t *testing.T, ctx context.Context, parentID, name string, aces ...acl.Ace) *store.Object {
	t.Helper()
	obj, err := f.svc.CreateFolder(ctx, repoID, service.CreateFolderRequest{
		ParentID:   parentID,
		Properties: map[string]any{cmis.PropName: name},
		ACL:        aces,
	})
	require.NoError(t, err)
	return obj
}

func (f *fixture) doc(t *testing.T, ctx context.Context, parentID, name, content string) *store.Object {
	t.Helper()
	req := service.CreateDocumentRequest{
		ParentID:   parentID,
		TypeID:     "acme:doc",
		Properties: map[string]any{cmis.PropName: name},
	}
	if content != "" {
		req.Content = text(content)
	}
	obj, err := f.svc.CreateDocument(ctx, repoID, req)
	require.NoError(t, err)
	return obj
}

func readAll(t *testing.T, f *fixture, ctx context.Context, id string) string {
	t.Helper()
	cs, err := f.svc.GetContentStream(ctx, repoID, id)
	require.NoError(t, err)
	defer cs.Body.Close()
	data, err := io.ReadAll(cs.Body)
	require.NoError(t, err)
	return string(data)
}

func TestNew(t *testing.T) {
	_, err := service.New(service.WithBlobStore(memory.New()))
	assert.Error(t, err)

	_, err = service.New(service.WithManager(store.NewManager()))
	assert.Error(t, err)
}

func TestPrincipal(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, "", service.Principal(ctx))
	assert.Equal(t, "alice", service.Principal(service.WithPrincipal(ctx, "alice")))
}

func TestService_RepositoryInfo(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	infos := f.svc.RepositoryInfos(ctx)
	require.Len(t, infos, 1)
	assert.Equal(t, repoID, infos[0].ID)
	assert.Equal(t, f.rootID, infos[0].RootFolderID)

	_, err := f.svc.RepositoryInfo(ctx, "missing")
	assert.ErrorIs(t, err, cmis.ErrObjectNotFound)

	var repoErr *cmis.RepositoryError
	require.True(t, errors.As(err, &repoErr))
	assert.Equal(t, "missing", repoErr.RepositoryID)
}

func TestService_Types(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	roots, err := f.svc.TypeChildren(ctx, repoID, "", false)
	require.NoError(t, err)
	assert.Len(t, roots, 4)

	created, err := f.svc.CreateType(ctx, repoID, service.CreateTypeRequest{
		ID:          "acme:invoice",
		ParentID:    "acme:doc",
		DisplayName: "Invoice",
		Properties: []*typedef.PropertyDefinition{
			{ID: "acme:amount", PropertyType: cmis.PropertyTypeDecimal, Cardinality: cmis.CardinalitySingle, Queryable: true, Orderable: true, Updatability: cmis.UpdatabilityReadWrite},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "acme:doc", created.ParentTypeID)

	got, err := f.svc.TypeDefinition(ctx, repoID, "acme:invoice")
	require.NoError(t, err)
	_, ok := got.PropertyDefinitions["acme:amount"]
	assert.True(t, ok)

	_, err = f.svc.TypeDefinition(ctx, repoID, "acme:missing")
	assert.ErrorIs(t, err, cmis.ErrObjectNotFound)
}

func TestService_ContentLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	d := f.doc(t, ctx, f.rootID, "a.txt", "hello")
	assert.Equal(t, 1, f.blobs.Len())
	assert.Equal(t, "hello", readAll(t, f, ctx, d.ID))
	assert.True(t, f.events.has("created", d.ID))

	_, err := f.svc.SetContentStream(ctx, repoID, d.ID, "", text("again"), false)
	assert.ErrorIs(t, err, cmis.ErrContentAlreadyExists)
	assert.Equal(t, 1, f.blobs.Len(), "failed uploads are discarded")

	updated, err := f.svc.SetContentStream(ctx, repoID, d.ID, "", text("world"), true)
	require.NoError(t, err)
	assert.Equal(t, "world", readAll(t, f, ctx, d.ID))
	assert.Equal(t, 1, f.blobs.Len(), "replaced content is released")

	_, err = f.svc.DeleteContentStream(ctx, repoID, d.ID, updated.ChangeToken)
	require.NoError(t, err)
	assert.Equal(t, 0, f.blobs.Len())

	_, err = f.svc.GetContentStream(ctx, repoID, d.ID)
	assert.ErrorIs(t, err, cmis.ErrConstraint)

	t.Run("size limit", func(t *testing.T) {
		_, err := f.svc.CreateDocument(ctx, repoID, service.CreateDocumentRequest{
			ParentID:   f.rootID,
			TypeID:     "acme:doc",
			Properties: map[string]any{cmis.PropName: "big"},
			Content:    text(strings.Repeat("x", 65)),
		})
		assert.ErrorIs(t, err, cmis.ErrConstraint)
		assert.Equal(t, 0, f.blobs.Len())
	})

	t.Run("name clash discards upload", func(t *testing.T) {
		_, err := f.svc.CreateDocument(ctx, repoID, service.CreateDocumentRequest{
			ParentID:   f.rootID,
			TypeID:     "acme:doc",
			Properties: map[string]any{cmis.PropName: "a.txt"},
			Content:    text("dup"),
		})
		assert.ErrorIs(t, err, cmis.ErrNameConstraintViolation)
		assert.Equal(t, 0, f.blobs.Len())
	})

	t.Run("delete releases content", func(t *testing.T) {
		other := f.doc(t, ctx, f.rootID, "b.txt", "bytes")
		assert.Equal(t, 1, f.blobs.Len())
		require.NoError(t, f.svc.DeleteObject(ctx, repoID, other.ID, false))
		assert.Equal(t, 0, f.blobs.Len())
		assert.True(t, f.events.has("deleted", other.ID))
	})
}

func TestService_Versioning(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v1, err := f.svc.CreateDocument(ctx, repoID, service.CreateDocumentRequest{
		ParentID:   f.rootID,
		Properties: map[string]any{cmis.PropName: "report"},
		Content:    text("v1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1.0", v1.Properties[cmis.PropVersionLabel])

	pwc, err := f.svc.CheckOut(ctx, repoID, v1.ID)
	require.NoError(t, err)
	assert.True(t, pwc.IsPWC)
	assert.Equal(t, 1, f.blobs.Len(), "the PWC shares the content of the latest version")

	v2, err := f.svc.CheckIn(ctx, repoID, pwc.ID, service.CheckInRequest{Major: true, Content: text("v2")})
	require.NoError(t, err)
	assert.Equal(t, "2.0", v2.Properties[cmis.PropVersionLabel])
	assert.Equal(t, 2, f.blobs.Len(), "the first version keeps its content")
	assert.Equal(t, "v1", readAll(t, f, ctx, v1.ID))
	assert.Equal(t, "v2", readAll(t, f, ctx, v2.ID))

	versions, err := f.svc.AllVersions(ctx, repoID, v1.ID, "")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, v2.ID, versions[0].ID)

	latest, err := f.svc.ObjectOfLatestVersion(ctx, repoID, v1.ID, true, "")
	require.NoError(t, err)
	assert.Equal(t, v2.ID, latest.ID)

	t.Run("deleting the PWC cancels the checkout", func(t *testing.T) {
		pwc, err := f.svc.CheckOut(ctx, repoID, v2.ID)
		require.NoError(t, err)

		docs, err := f.svc.CheckedOutDocs(ctx, repoID, "", "")
		require.NoError(t, err)
		require.Len(t, docs, 1)
		assert.Equal(t, pwc.ID, docs[0].ID)

		require.NoError(t, f.svc.DeleteObject(ctx, repoID, pwc.ID, false))
		assert.Equal(t, 2, f.blobs.Len())

		docs, err = f.svc.CheckedOutDocs(ctx, repoID, "", "")
		require.NoError(t, err)
		assert.Empty(t, docs)
	})

	t.Run("cancel without checkout", func(t *testing.T) {
		err := f.svc.CancelCheckOut(ctx, repoID, v2.ID)
		assert.ErrorIs(t, err, cmis.ErrConstraint)
	})

	t.Run("delete all versions", func(t *testing.T) {
		require.NoError(t, f.svc.DeleteObject(ctx, repoID, v2.ID, true))
		assert.Equal(t, 0, f.blobs.Len())
		_, err := f.svc.GetObject(ctx, repoID, v1.ID, "")
		assert.ErrorIs(t, err, cmis.ErrObjectNotFound)
	})
}

func TestService_Permissions(t *testing.T) {
	f := newFixture(t)
	admin := context.Background()
	alice := service.WithPrincipal(admin, "alice")
	bob := service.WithPrincipal(admin, "bob")

	private := f.folder(t, admin, f.rootID, "private", acl.Ace{PrincipalID: "alice", Permission: acl.PermissionAll})
	d := f.doc(t, alice, private.ID, "secret.txt", "s3cr3t")

	_, err := f.svc.GetObject(bob, repoID, d.ID, "")
	assert.ErrorIs(t, err, cmis.ErrPermissionDenied)

	_, err = f.svc.GetContentStream(bob, repoID, d.ID)
	assert.ErrorIs(t, err, cmis.ErrPermissionDenied)

	_, err = f.svc.CreateFolder(bob, repoID, service.CreateFolderRequest{
		ParentID:   private.ID,
		Properties: map[string]any{cmis.PropName: "intruder"},
	})
	assert.ErrorIs(t, err, cmis.ErrPermissionDenied)

	page, err := f.svc.Children(bob, repoID, f.rootID, -1, 0, "")
	require.NoError(t, err)
	assert.Empty(t, page.Objects, "bob cannot see the private folder")

	_, err = f.svc.ApplyACL(bob, repoID, d.ID, []acl.Ace{{PrincipalID: "bob", Permission: acl.PermissionRead}}, nil)
	assert.ErrorIs(t, err, cmis.ErrPermissionDenied)

	_, err = f.svc.ApplyACL(alice, repoID, d.ID, []acl.Ace{{PrincipalID: "bob", Permission: acl.PermissionRead}}, nil)
	require.NoError(t, err)
	assert.True(t, f.events.has("updated", d.ID))

	got, err := f.svc.GetObject(bob, repoID, d.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "secret.txt", got.Name)

	_, err = f.svc.UpdateProperties(bob, repoID, d.ID, "", map[string]any{cmis.PropName: "mine.txt"})
	assert.ErrorIs(t, err, cmis.ErrPermissionDenied)

	a, err := f.svc.GetACL(bob, repoID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, acl.PermissionRead, a.Permission("bob"))
}

func TestService_AllowableActions(t *testing.T) {
	f := newFixture(t)
	admin := context.Background()

	folder := f.folder(t, admin, f.rootID, "shared",
		acl.Ace{PrincipalID: "alice", Permission: acl.PermissionAll},
		acl.Ace{PrincipalID: "bob", Permission: acl.PermissionRead})
	d := f.doc(t, admin, folder.ID, "plain.txt", "")

	owner, err := f.svc.AllowableActions(service.WithPrincipal(admin, "alice"), repoID, d.ID)
	require.NoError(t, err)
	assert.True(t, owner.Can(service.ActionUpdateProperties))
	assert.True(t, owner.Can(service.ActionApplyACL))
	assert.True(t, owner.Can(service.ActionSetContentStream))
	assert.False(t, owner.Can(service.ActionGetContentStream), "the document has no content")
	assert.False(t, owner.Can(service.ActionCheckOut), "acme:doc is not versionable")

	reader, err := f.svc.AllowableActions(service.WithPrincipal(admin, "bob"), repoID, d.ID)
	require.NoError(t, err)
	assert.Equal(t, []service.Action{service.ActionCreateRelationship, service.ActionGetACL, service.ActionGetObjectParents, service.ActionGetProperties}, reader.List())

	root, err := f.svc.AllowableActions(admin, repoID, f.rootID)
	require.NoError(t, err)
	assert.True(t, root.Can(service.ActionCreateFolder))
	assert.False(t, root.Can(service.ActionDeleteObject))
	assert.False(t, root.Can(service.ActionGetFolderParent))

	_, err = f.svc.AllowableActions(service.WithPrincipal(admin, "mallory"), repoID, d.ID)
	assert.ErrorIs(t, err, cmis.ErrPermissionDenied)

	t.Run("versioned document", func(t *testing.T) {
		v, err := f.svc.CreateDocument(admin, repoID, service.CreateDocumentRequest{
			ParentID:   folder.ID,
			Properties: map[string]any{cmis.PropName: "versioned"},
		})
		require.NoError(t, err)
		alice := service.WithPrincipal(admin, "alice")

		actions, err := f.svc.AllowableActions(alice, repoID, v.ID)
		require.NoError(t, err)
		assert.True(t, actions.Can(service.ActionCheckOut))
		assert.False(t, actions.Can(service.ActionCheckIn))

		pwc, err := f.svc.CheckOut(alice, repoID, v.ID)
		require.NoError(t, err)
		actions, err = f.svc.AllowableActions(alice, repoID, pwc.ID)
		require.NoError(t, err)
		assert.False(t, actions.Can(service.ActionCheckOut))
		assert.True(t, actions.Can(service.ActionCheckIn))
		assert.True(t, actions.Can(service.ActionCancelCheckOut))
	})
}

func TestCan(t *testing.T) {
	assert.True(t, service.Can(acl.PermissionRead, service.ActionGetProperties))
	assert.False(t, service.Can(acl.PermissionRead, service.ActionUpdateProperties))
	assert.True(t, service.Can(acl.PermissionWrite, service.ActionDeleteTree))
	assert.False(t, service.Can(acl.PermissionWrite, service.ActionApplyACL))
	assert.True(t, service.Can(acl.PermissionAll, service.ActionApplyACL))
	assert.False(t, service.Can(acl.PermissionAll, service.Action("canFly")))
}

func TestService_Filter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := f.doc(t, ctx, f.rootID, "a.txt", "")

	got, err := f.svc.GetObject(ctx, repoID, d.ID, "cmis:name, cmis:createdBy")
	require.NoError(t, err)
	keys := make([]string, 0, len(got.Properties))
	for k := range got.Properties {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		cmis.PropName, cmis.PropCreatedBy,
		cmis.PropObjectID, cmis.PropObjectTypeID, cmis.PropBaseTypeID,
	}, keys)

	_, err = f.svc.GetObject(ctx, repoID, d.ID, "cmis:nope")
	assert.ErrorIs(t, err, cmis.ErrInvalidArgument)

	byPath, err := f.svc.GetObjectByPath(ctx, repoID, "/a.txt", "*")
	require.NoError(t, err)
	assert.Equal(t, d.ID, byPath.ID)
}

func TestService_Navigation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := f.folder(t, ctx, f.rootID, "a")
	b := f.folder(t, ctx, a.ID, "b")
	d := f.doc(t, ctx, b.ID, "d.txt", "")

	tree, err := f.svc.Descendants(ctx, repoID, f.rootID, -1, false, "cmis:name")
	require.NoError(t, err)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Children, 1)
	require.Len(t, tree[0].Children[0].Children, 1)
	leaf := tree[0].Children[0].Children[0].Object
	assert.Equal(t, d.ID, leaf.ID)
	_, hasCreator := leaf.Properties[cmis.PropCreatedBy]
	assert.False(t, hasCreator, "the filter applies to the whole tree")

	folders, err := f.svc.Descendants(ctx, repoID, f.rootID, -1, true, "")
	require.NoError(t, err)
	require.Len(t, folders, 1)
	require.Len(t, folders[0].Children, 1)
	assert.Empty(t, folders[0].Children[0].Children)

	parent, err := f.svc.FolderParent(ctx, repoID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, a.ID, parent.ID)

	parents, err := f.svc.ObjectParents(ctx, repoID, d.ID)
	require.NoError(t, err)
	require.Len(t, parents, 1)
	assert.Equal(t, b.ID, parents[0].ID)

	moved, err := f.svc.MoveObject(ctx, repoID, d.ID, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, moved.ParentIDs)

	_, err = f.svc.AddObjectToFolder(ctx, repoID, d.ID, b.ID)
	assert.ErrorIs(t, err, cmis.ErrNotSupported)

	t.Run("descendants disabled", func(t *testing.T) {
		caps := cmis.DefaultCapabilities()
		caps.GetDescendants = false
		g := newFixture(t, store.WithCapabilities(caps))
		_, err := g.svc.Descendants(ctx, repoID, g.rootID, 1, false, "")
		assert.ErrorIs(t, err, cmis.ErrNotSupported)
	})
}

func TestService_MultiFiling(t *testing.T) {
	caps := cmis.DefaultCapabilities()
	caps.MultiFiling = true
	f := newFixture(t, store.WithCapabilities(caps))
	ctx := context.Background()

	a := f.folder(t, ctx, f.rootID, "a")
	b := f.folder(t, ctx, f.rootID, "b")
	d := f.doc(t, ctx, a.ID, "d.txt", "")

	filed, err := f.svc.AddObjectToFolder(ctx, repoID, d.ID, b.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{a.ID, b.ID}, filed.ParentIDs)

	filed, err = f.svc.RemoveObjectFromFolder(ctx, repoID, d.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{b.ID}, filed.ParentIDs)
}

func TestService_DeleteTree(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	top := f.folder(t, ctx, f.rootID, "top")
	sub := f.folder(t, ctx, top.ID, "sub")
	f.doc(t, ctx, sub.ID, "a.txt", "one")
	f.doc(t, ctx, top.ID, "b.txt", "two")
	require.Equal(t, 2, f.blobs.Len())

	_, err := f.svc.DeleteTree(ctx, repoID, top.ID, service.DeleteTreeRequest{AllVersions: false})
	assert.ErrorIs(t, err, cmis.ErrNotSupported)

	failed, err := f.svc.DeleteTree(ctx, repoID, top.ID, service.DeleteTreeRequest{AllVersions: true})
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Equal(t, 0, f.blobs.Len())
	assert.True(t, f.events.has("deleted", top.ID))

	_, err = f.svc.GetObject(ctx, repoID, sub.ID, "")
	assert.ErrorIs(t, err, cmis.ErrObjectNotFound)
}

func TestService_Relationships(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.doc(t, ctx, f.rootID, "a.txt", "")
	b := f.doc(t, ctx, f.rootID, "b.txt", "")

	rel, err := f.svc.CreateRelationship(ctx, repoID, service.CreateRelationshipRequest{
		SourceID:   a.ID,
		TargetID:   b.ID,
		Properties: map[string]any{cmis.PropName: "link"},
	})
	require.NoError(t, err)
	assert.Equal(t, a.ID, rel.SourceID)
	assert.Equal(t, b.ID, rel.TargetID)

	_, err = f.svc.CreateRelationship(ctx, repoID, service.CreateRelationshipRequest{SourceID: a.ID})
	assert.ErrorIs(t, err, cmis.ErrInvalidArgument)

	_, err = f.svc.CreateRelationship(ctx, repoID, service.CreateRelationshipRequest{TypeID: "acme:doc", SourceID: a.ID, TargetID: b.ID})
	assert.ErrorIs(t, err, cmis.ErrInvalidArgument)

	policy, err := f.svc.CreatePolicy(ctx, repoID, service.CreatePolicyRequest{
		Properties: map[string]any{cmis.PropName: "retention"},
	})
	require.NoError(t, err)
	assert.Empty(t, policy.ParentIDs)

	require.NoError(t, f.svc.DeleteObject(ctx, repoID, a.ID, false))
	_, err = f.svc.GetObject(ctx, repoID, rel.ID, "")
	assert.ErrorIs(t, err, cmis.ErrObjectNotFound)
}

func TestService_Query(t *testing.T) {
	f := newFixture(t)
	admin := context.Background()

	private := f.folder(t, admin, f.rootID, "private", acl.Ace{PrincipalID: "alice", Permission: acl.PermissionAll})
	f.doc(t, admin, f.rootID, "public.txt", "")
	f.doc(t, admin, private.ID, "hidden.txt", "")

	res, err := f.svc.Query(admin, repoID, service.QueryRequest{Statement: "SELECT cmis:name FROM acme:doc ORDER BY cmis:name"})
	require.NoError(t, err)
	assert.Equal(t, 2, res.NumItems)

	res, err = f.svc.Query(service.WithPrincipal(admin, "bob"), repoID, service.QueryRequest{Statement: "SELECT cmis:name FROM acme:doc"})
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "public.txt", res.Rows[0].Values["cmis:name"])

	_, err = f.svc.Query(admin, repoID, service.QueryRequest{Statement: "SELECT FROM"})
	assert.ErrorIs(t, err, cmis.ErrInvalidArgument)

	t.Run("disabled", func(t *testing.T) {
		caps := cmis.DefaultCapabilities()
		caps.Query = cmis.CapabilityQueryNone
		caps.ACL = cmis.CapabilityACLNone
		g := newFixture(t, store.WithCapabilities(caps))
		_, err := g.svc.Query(admin, repoID, service.QueryRequest{Statement: "SELECT * FROM cmis:document"})
		assert.ErrorIs(t, err, cmis.ErrNotSupported)
		_, err = g.svc.GetACL(admin, repoID, g.rootID)
		assert.ErrorIs(t, err, cmis.ErrNotSupported)
	})
}

func TestService_Observer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.doc(t, ctx, f.rootID, "a.txt", "")
	_, err := f.svc.GetObject(ctx, repoID, "missing", "")
	require.Error(t, err)

	f.observer.mu.Lock()
	defer f.observer.mu.Unlock()
	require.Len(t, f.observer.ops, 2)
	assert.Equal(t, "createDocument", f.observer.ops[0].op)
	assert.NoError(t, f.observer.ops[0].err)
	assert.Equal(t, "getObject", f.observer.ops[1].op)
	assert.ErrorIs(t, f.observer.ops[1].err, cmis.ErrObjectNotFound)
}
