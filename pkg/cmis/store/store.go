// Package store implements the in-memory object store of one repository:
// the id-indexed object graph, folder filing, version series and the
// repository lock guarding them.
//
// All structural mutations run under the repository write lock, validate
// before they write and leave the store unchanged when they fail. Reads take
// the read lock and return snapshots. An empty principal is an internal
// caller and bypasses read filtering.
package store

import (
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

// Store is the object store of a single repository.
type Store struct {
	mu       sync.RWMutex
	id       string
	caps     cmis.Capabilities
	types    *typedef.Registry
	objects  map[string]*object
	children map[string]map[string]struct{}
	rootID   string
	seq      int64
	now      func() time.Time
	newID    func() string
}

// Option configures a Store.
type Option func(*Store)

// WithCapabilities sets the repository capabilities.
func WithCapabilities(caps cmis.Capabilities) Option {
	return func(s *Store) {
		s.caps = caps
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator replaces the UUID object id generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// WithRootACL sets the ACL of the root folder. The default grants ALL to
// anyone.
func WithRootACL(a *acl.Acl) Option {
	return func(s *Store) {
		if root := s.objects[s.rootID]; root != nil && a != nil {
			root.acl = a.Clone()
		}
	}
}

// New creates a store for repository id with an empty root folder. types is
// the repository's own registry; it is never shared between repositories.
func New(id string, types *typedef.Registry, opts ...Option) *Store {
	s := &Store{
		id:       id,
		caps:     cmis.DefaultCapabilities(),
		types:    types,
		objects:  make(map[string]*object),
		children: make(map[string]map[string]struct{}),
		now:      time.Now,
		newID:    uuid.NewString,
	}
	// Clock and id options must apply before the root is created, ACL
	// options after.
	for _, opt := range opts {
		opt(s)
	}
	now := s.now().UTC()
	root := &object{
		id:         s.newID(),
		kind:       KindFolder,
		typeID:     string(cmis.BaseTypeFolder),
		baseTypeID: cmis.BaseTypeFolder,
		createdBy:  "system",
		modifiedBy: "system",
		created:    now,
		modified:   now,
		props:      map[string]any{},
		filing:     &singleFiling{},
		acl:        acl.Default(),
	}
	s.seq++
	root.token = s.seq
	s.objects[root.id] = root
	s.rootID = root.id
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RepositoryID returns the id of the repository this store belongs to.
func (s *Store) RepositoryID() string { return s.id }

// RootFolderID returns the id of the root folder.
func (s *Store) RootFolderID() string { return s.rootID }

// Capabilities returns the repository capabilities.
func (s *Store) Capabilities() cmis.Capabilities { return s.caps }

// Types returns the repository's type registry.
func (s *Store) Types() *typedef.Registry { return s.types }

func (s *Store) get(id string) (*object, error) {
	o, ok := s.objects[id]
	if !ok {
		return nil, cmis.Errorf(cmis.ErrObjectNotFound, "object %q", id)
	}
	return o, nil
}

// identity returns the object that carries name, filing and acl for o: the
// series of a version, o itself otherwise.
func (s *Store) identity(o *object) *object {
	if o.kind == KindDocumentVersion {
		if series, ok := s.objects[o.seriesID]; ok {
			return series
		}
	}
	return o
}

func (s *Store) parentsOf(o *object) []string {
	id := s.identity(o)
	if id.filing == nil {
		return nil
	}
	return id.filing.parents()
}

func (s *Store) aclOf(o *object) *acl.Acl {
	return s.identity(o).acl
}

func (s *Store) visible(o *object, principal string) bool {
	return principal == "" || s.aclOf(o).HasPermission(principal, acl.PermissionRead)
}

func (s *Store) touch(o *object, principal string) {
	s.seq++
	o.token = s.seq
	o.modified = s.now().UTC()
	if principal != "" {
		o.modifiedBy = principal
	}
}

// latest returns the last non-PWC version of series or, if includePWC is set
// and the series is checked out, the PWC.
func (s *Store) latest(series *object, includePWC bool) *object {
	for i := len(series.versions) - 1; i >= 0; i-- {
		v := s.objects[series.versions[i]]
		if !v.pwc || includePWC {
			return v
		}
	}
	return nil
}

func (s *Store) pwcOf(series *object) *object {
	if n := len(series.versions); n > 0 {
		if v := s.objects[series.versions[n-1]]; v.pwc {
			return v
		}
	}
	return nil
}

// listed returns the object representing entry in folder listings: the
// latest version for a version series, the object itself otherwise.
func (s *Store) listed(entry *object) *object {
	if entry.kind != KindVersionedDocument {
		return entry
	}
	if v := s.latest(entry, false); v != nil {
		return v
	}
	return s.pwcOf(entry)
}

func (s *Store) pathOf(o *object) string {
	var segments []string
	cur := s.identity(o)
	for cur.id != s.rootID {
		segments = append(segments, cur.name)
		ps := cur.filing.parents()
		if len(ps) == 0 {
			return ""
		}
		cur = s.objects[ps[0]]
	}
	if len(segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for i := len(segments) - 1; i >= 0; i-- {
		b.WriteString("/")
		b.WriteString(segments[i])
	}
	return b.String()
}

// snapshot builds the client view of o with its complete property set.
func (s *Store) snapshot(o *object) *Object {
	ident := s.identity(o)
	props := cloneProps(o.props)
	props[cmis.PropName] = ident.name
	props[cmis.PropObjectID] = o.id
	props[cmis.PropObjectTypeID] = o.typeID
	props[cmis.PropBaseTypeID] = string(o.baseTypeID)
	props[cmis.PropCreatedBy] = o.createdBy
	props[cmis.PropCreationDate] = o.created
	props[cmis.PropLastModifiedBy] = o.modifiedBy
	props[cmis.PropLastModificationDate] = o.modified
	token := strconv.FormatInt(o.token, 10)
	props[cmis.PropChangeToken] = token

	out := &Object{
		ID:          o.id,
		Kind:        o.kind,
		TypeID:      o.typeID,
		BaseTypeID:  o.baseTypeID,
		Name:        ident.name,
		ParentIDs:   s.parentsOf(o),
		Content:     o.content.Clone(),
		ChangeToken: token,
		SourceID:    o.sourceID,
		TargetID:    o.targetID,
	}
	if a := s.aclOf(o); a != nil {
		out.ACL = a.Clone()
	}

	switch o.kind {
	case KindFolder:
		out.Path = s.pathOf(o)
		props[cmis.PropPath] = out.Path
		if ps := out.ParentIDs; len(ps) > 0 {
			props[cmis.PropParentID] = ps[0]
		}
	case KindDocument:
		out.VersionSeriesID = o.id
		out.IsLatestVersion = true
		props[cmis.PropIsImmutable] = false
		props[cmis.PropIsLatestVersion] = true
		props[cmis.PropIsMajorVersion] = true
		props[cmis.PropIsLatestMajorVersion] = true
		props[cmis.PropIsPrivateWorkingCopy] = false
		props[cmis.PropVersionSeriesID] = o.id
		props[cmis.PropIsVersionSeriesCheckedOut] = false
	case KindDocumentVersion, KindVersionedDocument:
		v, series := o, ident
		if o.kind == KindVersionedDocument {
			v = s.listed(o)
		}
		latest := s.latest(series, false)
		var latestMajor *object
		for i := len(series.versions) - 1; i >= 0; i-- {
			if c := s.objects[series.versions[i]]; !c.pwc && c.major {
				latestMajor = c
				break
			}
		}
		out.VersionSeriesID = series.id
		out.IsPWC = v.pwc
		out.IsLatestVersion = v == latest
		out.CheckedOutBy = series.checkedOutBy
		props[cmis.PropIsImmutable] = false
		props[cmis.PropIsLatestVersion] = v == latest
		props[cmis.PropIsMajorVersion] = v.major
		props[cmis.PropIsLatestMajorVersion] = v == latestMajor
		props[cmis.PropIsPrivateWorkingCopy] = v.pwc
		props[cmis.PropVersionLabel] = v.label
		props[cmis.PropVersionSeriesID] = series.id
		props[cmis.PropIsVersionSeriesCheckedOut] = series.checkedOutBy != ""
		if series.checkedOutBy != "" {
			props[cmis.PropVersionSeriesCheckedOutBy] = series.checkedOutBy
			if pwc := s.pwcOf(series); pwc != nil {
				props[cmis.PropVersionSeriesCheckedOutID] = pwc.id
			}
		}
		if v.comment != "" {
			props[cmis.PropCheckinComment] = v.comment
		}
	case KindRelationship:
		props[cmis.PropSourceID] = o.sourceID
		props[cmis.PropTargetID] = o.targetID
	}
	if o.content != nil {
		props[cmis.PropContentStreamLength] = o.content.Length
		props[cmis.PropContentStreamMimeType] = o.content.MimeType
		props[cmis.PropContentStreamFileName] = o.content.FileName
		props[cmis.PropContentStreamID] = o.content.StreamID
	}
	if out.Path == "" && ident.filing != nil {
		out.Path = s.pathOf(o)
	}
	out.Properties = props
	return out
}

// Get returns a snapshot of the object with id. A version series id resolves
// to the series' latest version.
func (s *Store) Get(id string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return s.snapshot(s.listed(o)), nil
}

// GetByPath resolves an absolute path such as /a/b/c.
func (s *Store) GetByPath(path string) (*Object, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "path %q is not absolute", path)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	cur := s.objects[s.rootID]
	for _, segment := range strings.Split(path, "/") {
		if segment == "" {
			continue
		}
		if !cur.isFolder() {
			return nil, cmis.Errorf(cmis.ErrObjectNotFound, "path %q", path)
		}
		next := s.childNamed(cur.id, segment, "")
		if next == nil {
			return nil, cmis.Errorf(cmis.ErrObjectNotFound, "path %q", path)
		}
		cur = next
	}
	return s.snapshot(s.listed(cur)), nil
}

// Path returns the primary path of a fileable object; unfiled objects have
// an empty path.
func (s *Store) Path(id string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, err := s.get(id)
	if err != nil {
		return "", err
	}
	if s.identity(o).filing == nil {
		return "", cmis.Errorf(cmis.ErrConstraint, "object %q is not fileable", id)
	}
	return s.pathOf(o), nil
}

// ContentReferenced reports whether any object still uses streamID.
func (s *Store) ContentReferenced(streamID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, o := range s.objects {
		if o.content != nil && o.content.StreamID == streamID {
			return true
		}
	}
	return false
}

// Count returns the number of stored objects, including the root folder,
// version series containers and their versions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}
