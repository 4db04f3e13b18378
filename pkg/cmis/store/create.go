package store

import (
	"strings"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

// CreateParams describes a new object. The base type of TypeID selects the
// object kind.
type CreateParams struct {
	TypeID     string
	Properties map[string]any
	// ParentID is the folder to file the object in. It must be empty for
	// relationships and policies, and may be empty for documents when the
	// repository supports unfiling.
	ParentID        string
	Content         *cmis.ContentStream
	VersioningState cmis.VersioningState
	// ACL defaults to a copy of the parent folder's ACL.
	ACL       *acl.Acl
	Principal string
}

// Create stores a new object and returns its snapshot. For versionable
// document types the returned object is the first version of a new series.
func (s *Store) Create(p CreateParams) (*Object, error) {
	t, err := s.types.GetTypeByID(p.TypeID)
	if err != nil {
		return nil, err
	}
	if !t.Creatable {
		return nil, cmis.Errorf(cmis.ErrConstraint, "type %q is not creatable", t.ID)
	}
	props, err := prepareCreateProperties(t, p.Properties)
	if err != nil {
		return nil, err
	}
	name, _ := props[cmis.PropName].(string)
	if err := validateName(name); err != nil {
		return nil, err
	}
	delete(props, cmis.PropName)

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	o := &object{
		id:         s.newID(),
		typeID:     t.ID,
		baseTypeID: t.BaseTypeID,
		name:       name,
		createdBy:  p.Principal,
		modifiedBy: p.Principal,
		created:    now,
		modified:   now,
		props:      props,
	}

	switch t.BaseTypeID {
	case cmis.BaseTypeFolder:
		return s.createFolder(o, p)
	case cmis.BaseTypeDocument:
		return s.createDocument(o, t, p)
	case cmis.BaseTypeRelationship:
		return s.createRelationship(o, t, p)
	case cmis.BaseTypePolicy:
		if p.ParentID != "" {
			return nil, cmis.Errorf(cmis.ErrConstraint, "policies are not fileable")
		}
		o.kind = KindPolicy
		o.acl = aclOrDefault(p.ACL, nil)
		s.insert(o)
		return s.snapshot(o), nil
	}
	return nil, cmis.Errorf(cmis.ErrInvalidArgument, "unknown base type %q", t.BaseTypeID)
}

// prepareCreateProperties applies defaults, normalizes the values and checks
// that every value may be set on creation.
func prepareCreateProperties(t *typedef.TypeDefinition, in map[string]any) (map[string]any, error) {
	props := make(map[string]any, len(in))
	for k, v := range in {
		props[k] = v
	}
	if v, ok := props[cmis.PropObjectTypeID]; ok {
		if v != t.ID {
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "%s %v does not match type %q", cmis.PropObjectTypeID, v, t.ID)
		}
		delete(props, cmis.PropObjectTypeID)
	}
	for k, v := range t.DefaultValues(props) {
		props[k] = v
	}
	norm, err := t.NormalizeProperties(props)
	if err != nil {
		return nil, err
	}
	for id, v := range norm {
		d := t.PropertyDefinitions[id]
		if d.Updatability == cmis.UpdatabilityReadOnly {
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "property %q is read-only", id)
		}
		if v == nil {
			delete(norm, id)
		}
	}
	if err := t.CheckRequired(norm); err != nil {
		return nil, err
	}
	return norm, nil
}

func validateName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return cmis.Errorf(cmis.ErrInvalidArgument, "%s is required", cmis.PropName)
	case strings.Contains(name, "/"):
		return cmis.Errorf(cmis.ErrInvalidArgument, "name %q must not contain '/'", name)
	}
	return nil
}

func aclOrDefault(a, inherited *acl.Acl) *acl.Acl {
	switch {
	case a != nil:
		return a.Clone()
	case inherited != nil:
		return inherited.Clone()
	}
	return acl.Default()
}

// parentFolder returns the folder id refers to, or an error when it does not
// exist or is not a folder.
func (s *Store) parentFolder(id string) (*object, error) {
	f, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if !f.isFolder() {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "object %q is not a folder", id)
	}
	return f, nil
}

func (s *Store) insert(o *object) {
	s.seq++
	o.token = s.seq
	s.objects[o.id] = o
	if o.filing != nil {
		for _, p := range o.filing.parents() {
			s.link(o.id, p)
		}
	}
}

func (s *Store) createFolder(o *object, p CreateParams) (*Object, error) {
	if p.ParentID == "" {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "folders need a parent folder")
	}
	if p.Content != nil {
		return nil, cmis.Errorf(cmis.ErrConstraint, "folders cannot have content")
	}
	parent, err := s.parentFolder(p.ParentID)
	if err != nil {
		return nil, err
	}
	if s.childNamed(parent.id, o.name, "") != nil {
		return nil, cmis.Errorf(cmis.ErrNameConstraintViolation, "%q already exists in folder %q", o.name, parent.id)
	}
	o.kind = KindFolder
	o.filing = &singleFiling{parentID: parent.id}
	o.acl = aclOrDefault(p.ACL, parent.acl)
	s.insert(o)
	return s.snapshot(o), nil
}

func (s *Store) newDocumentFiling() filing {
	if s.caps.MultiFiling || s.caps.Unfiling {
		return &multiFiling{parentIDs: []string{}}
	}
	return &singleFiling{}
}

func (s *Store) createDocument(o *object, t *typedef.TypeDefinition, p CreateParams) (*Object, error) {
	var parent *object
	if p.ParentID != "" {
		var err error
		if parent, err = s.parentFolder(p.ParentID); err != nil {
			return nil, err
		}
		if s.childNamed(parent.id, o.name, "") != nil {
			return nil, cmis.Errorf(cmis.ErrNameConstraintViolation, "%q already exists in folder %q", o.name, parent.id)
		}
	} else if !s.caps.Unfiling {
		return nil, cmis.Errorf(cmis.ErrConstraint, "documents need a parent folder")
	}

	switch {
	case t.ContentStreamAllowed == cmis.ContentStreamNotAllowed && p.Content != nil:
		return nil, cmis.Errorf(cmis.ErrConstraint, "type %q does not allow content", t.ID)
	case t.ContentStreamAllowed == cmis.ContentStreamRequired && p.Content == nil:
		return nil, cmis.Errorf(cmis.ErrConstraint, "type %q requires content", t.ID)
	}

	state := p.VersioningState
	if state == "" {
		state = cmis.VersioningStateNone
		if t.Versionable {
			state = cmis.VersioningStateMajor
		}
	}
	switch {
	case !t.Versionable && state != cmis.VersioningStateNone:
		return nil, cmis.Errorf(cmis.ErrConstraint, "type %q is not versionable", t.ID)
	case t.Versionable && state == cmis.VersioningStateNone:
		return nil, cmis.Errorf(cmis.ErrConstraint, "versionable type %q needs a versioning state", t.ID)
	}

	f := s.newDocumentFiling()
	if parent != nil {
		switch pf := f.(type) {
		case *multiFiling:
			pf.add(parent.id)
		case *singleFiling:
			pf.parentID = parent.id
		}
	}
	var inherited *acl.Acl
	if parent != nil {
		inherited = parent.acl
	}

	if !t.Versionable {
		o.kind = KindDocument
		o.filing = f
		o.content = p.Content.Clone()
		o.acl = aclOrDefault(p.ACL, inherited)
		s.insert(o)
		return s.snapshot(o), nil
	}

	series := &object{
		id:         o.id,
		kind:       KindVersionedDocument,
		typeID:     o.typeID,
		baseTypeID: o.baseTypeID,
		name:       o.name,
		createdBy:  o.createdBy,
		modifiedBy: o.modifiedBy,
		created:    o.created,
		modified:   o.modified,
		props:      map[string]any{},
		filing:     f,
		acl:        aclOrDefault(p.ACL, inherited),
	}
	v := o
	v.id = s.newID()
	v.kind = KindDocumentVersion
	v.name = ""
	v.seriesID = series.id
	v.content = p.Content.Clone()
	switch state {
	case cmis.VersioningStateMajor:
		v.major, v.label = true, "1.0"
	case cmis.VersioningStateMinor:
		v.label = "0.1"
	case cmis.VersioningStateCheckedOut:
		v.pwc, v.label = true, pwcLabel
		series.checkedOutBy = p.Principal
	default:
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "unknown versioning state %q", state)
	}
	series.versions = []string{v.id}
	s.insert(series)
	s.insert(v)
	return s.snapshot(v), nil
}

func (s *Store) createRelationship(o *object, t *typedef.TypeDefinition, p CreateParams) (*Object, error) {
	if p.ParentID != "" {
		return nil, cmis.Errorf(cmis.ErrConstraint, "relationships are not fileable")
	}
	sourceID, _ := o.props[cmis.PropSourceID].(string)
	targetID, _ := o.props[cmis.PropTargetID].(string)
	if sourceID == "" || targetID == "" {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "relationships need %s and %s", cmis.PropSourceID, cmis.PropTargetID)
	}
	for _, end := range []struct {
		id      string
		allowed []string
	}{{sourceID, t.AllowedSourceTypes}, {targetID, t.AllowedTargetTypes}} {
		e, err := s.get(end.id)
		if err != nil {
			return nil, err
		}
		if len(end.allowed) > 0 && !s.typeAllowed(e.typeID, end.allowed) {
			return nil, cmis.Errorf(cmis.ErrConstraint, "type %q of %q is not allowed by relationship type %q", e.typeID, end.id, t.ID)
		}
	}
	delete(o.props, cmis.PropSourceID)
	delete(o.props, cmis.PropTargetID)
	o.kind = KindRelationship
	o.sourceID, o.targetID = sourceID, targetID
	o.acl = aclOrDefault(p.ACL, nil)
	s.insert(o)
	return s.snapshot(o), nil
}

func (s *Store) typeAllowed(typeID string, allowed []string) bool {
	for _, a := range allowed {
		if s.types.IsSubtypeOf(typeID, a) {
			return true
		}
	}
	return false
}
