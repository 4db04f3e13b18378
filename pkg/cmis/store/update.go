package store

import (
	"strconv"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

func (s *Store) checkToken(o *object, changeToken string) error {
	if changeToken != "" && changeToken != strconv.FormatInt(o.token, 10) {
		return cmis.Errorf(cmis.ErrUpdateConflict, "object %q has changed since token %s", o.id, changeToken)
	}
	return nil
}

// prepareUpdate validates props against the updatability rules of t. It
// returns the property changes without cmis:name and the requested new
// name, if any. A nil value unsets a property.
func (s *Store) prepareUpdate(t *typedef.TypeDefinition, o *object, props map[string]any, checkingIn bool) (map[string]any, string, error) {
	norm, err := t.NormalizeProperties(props)
	if err != nil {
		return nil, "", err
	}
	newName := ""
	changes := make(map[string]any, len(norm))
	for id, v := range norm {
		d := t.PropertyDefinitions[id]
		switch d.Updatability {
		case cmis.UpdatabilityReadOnly:
			return nil, "", cmis.Errorf(cmis.ErrInvalidArgument, "property %q is read-only", id)
		case cmis.UpdatabilityOnCreate:
			return nil, "", cmis.Errorf(cmis.ErrInvalidArgument, "property %q can only be set on creation", id)
		case cmis.UpdatabilityWhenCheckedOut:
			if !o.pwc && !checkingIn {
				return nil, "", cmis.Errorf(cmis.ErrVersioning, "property %q can only be updated on a private working copy", id)
			}
		}
		if v == nil && d.Required {
			return nil, "", cmis.Errorf(cmis.ErrInvalidArgument, "required property %q cannot be unset", id)
		}
		if id == cmis.PropName {
			newName = v.(string)
			if err := validateName(newName); err != nil {
				return nil, "", err
			}
			continue
		}
		changes[id] = v
	}
	return changes, newName, nil
}

func applyChanges(o *object, changes map[string]any) {
	for id, v := range changes {
		if v == nil {
			delete(o.props, id)
			continue
		}
		o.props[id] = v
	}
}

// UpdateProperties changes the properties of an object. A non-empty
// changeToken must match the object's current token. Renames go through the
// sibling name check of every parent folder.
func (s *Store) UpdateProperties(id, changeToken string, props map[string]any, principal string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	o = s.listed(o)
	if err := s.checkToken(o, changeToken); err != nil {
		return nil, err
	}
	if o.kind == KindDocumentVersion {
		series := s.objects[o.seriesID]
		switch {
		case o.pwc && !s.caps.PWCUpdatable:
			return nil, cmis.Errorf(cmis.ErrNotSupported, "private working copies are not updatable")
		case !o.pwc && o != s.latest(series, false):
			return nil, cmis.Errorf(cmis.ErrVersioning, "only the latest version of %q can be updated", series.id)
		}
	}
	t, err := s.types.GetTypeByID(o.typeID)
	if err != nil {
		return nil, err
	}
	changes, newName, err := s.prepareUpdate(t, o, props, false)
	if err != nil {
		return nil, err
	}
	if newName != "" {
		if err := s.rename(o, newName, principal); err != nil {
			return nil, err
		}
	}
	applyChanges(o, changes)
	s.touch(o, principal)
	return s.snapshot(o), nil
}

// contentTarget resolves id to the document whose content may change:
// unversioned documents, or the PWC of a version series.
func (s *Store) contentTarget(id string) (*object, *typedef.TypeDefinition, error) {
	o, err := s.get(id)
	if err != nil {
		return nil, nil, err
	}
	o = s.listed(o)
	switch o.kind {
	case KindDocument:
	case KindDocumentVersion:
		if !o.pwc {
			return nil, nil, cmis.Errorf(cmis.ErrVersioning, "content of %q can only be changed on a private working copy", id)
		}
	default:
		return nil, nil, cmis.Errorf(cmis.ErrConstraint, "object %q is not a document", id)
	}
	t, err := s.types.GetTypeByID(o.typeID)
	if err != nil {
		return nil, nil, err
	}
	return o, t, nil
}

// SetContent attaches content to a document. Existing content is only
// replaced when overwrite is set. The replaced stream, if any, is returned.
func (s *Store) SetContent(id, changeToken string, content *cmis.ContentStream, overwrite bool, principal string) (*Object, *cmis.ContentStream, error) {
	if content == nil {
		return nil, nil, cmis.Errorf(cmis.ErrInvalidArgument, "content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, t, err := s.contentTarget(id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkToken(o, changeToken); err != nil {
		return nil, nil, err
	}
	if t.ContentStreamAllowed == cmis.ContentStreamNotAllowed {
		return nil, nil, cmis.Errorf(cmis.ErrConstraint, "type %q does not allow content", t.ID)
	}
	if o.content != nil && !overwrite {
		return nil, nil, cmis.Errorf(cmis.ErrContentAlreadyExists, "document %q already has content", id)
	}
	replaced := o.content
	o.content = content.Clone()
	s.touch(o, principal)
	return s.snapshot(o), replaced, nil
}

// DeleteContent removes the content of a document and returns it.
func (s *Store) DeleteContent(id, changeToken, principal string) (*Object, *cmis.ContentStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, t, err := s.contentTarget(id)
	if err != nil {
		return nil, nil, err
	}
	if err := s.checkToken(o, changeToken); err != nil {
		return nil, nil, err
	}
	if t.ContentStreamAllowed == cmis.ContentStreamRequired {
		return nil, nil, cmis.Errorf(cmis.ErrConstraint, "type %q requires content", t.ID)
	}
	replaced := o.content
	if replaced == nil {
		return s.snapshot(o), nil, nil
	}
	o.content = nil
	s.touch(o, principal)
	return s.snapshot(o), replaced, nil
}

// ACL returns a copy of the ACL governing id. Versions share the ACL of
// their series.
func (s *Store) ACL(id string) (*acl.Acl, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	return s.aclOf(o).Clone(), nil
}

// ApplyACL merges add and remove into the ACL of id and returns the result.
func (s *Store) ApplyACL(id string, add, remove []acl.Ace, principal string) (*acl.Acl, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	ident := s.identity(o)
	t, err := s.types.GetTypeByID(ident.typeID)
	if err != nil {
		return nil, err
	}
	if !t.ControllableACL {
		return nil, cmis.Errorf(cmis.ErrConstraint, "type %q does not allow ACL changes", t.ID)
	}
	for _, ace := range append(append([]acl.Ace(nil), add...), remove...) {
		if ace.PrincipalID == "" {
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "access control entry without principal")
		}
	}
	merged := ident.acl.Apply(add, remove)
	if merged.Hash() == ident.acl.Hash() && merged.Equal(ident.acl) {
		return merged, nil
	}
	ident.acl = merged
	s.touch(ident, principal)
	return ident.acl.Clone(), nil
}
