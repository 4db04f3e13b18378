package service

import (
	"context"
	"sort"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
)

// Action is a service operation a principal may be allowed to invoke on an
// object.
type Action string

const (
	ActionGetProperties          Action = "canGetProperties"
	ActionUpdateProperties       Action = "canUpdateProperties"
	ActionDeleteObject           Action = "canDeleteObject"
	ActionMoveObject             Action = "canMoveObject"
	ActionGetContentStream       Action = "canGetContentStream"
	ActionSetContentStream       Action = "canSetContentStream"
	ActionDeleteContentStream    Action = "canDeleteContentStream"
	ActionCheckOut               Action = "canCheckOut"
	ActionCancelCheckOut         Action = "canCancelCheckOut"
	ActionCheckIn                Action = "canCheckIn"
	ActionGetAllVersions         Action = "canGetAllVersions"
	ActionGetObjectParents       Action = "canGetObjectParents"
	ActionAddObjectToFolder      Action = "canAddObjectToFolder"
	ActionRemoveObjectFromFolder Action = "canRemoveObjectFromFolder"
	ActionGetChildren            Action = "canGetChildren"
	ActionGetDescendants         Action = "canGetDescendants"
	ActionGetFolderTree          Action = "canGetFolderTree"
	ActionGetFolderParent        Action = "canGetFolderParent"
	ActionCreateDocument         Action = "canCreateDocument"
	ActionCreateFolder           Action = "canCreateFolder"
	ActionDeleteTree             Action = "canDeleteTree"
	ActionCreateRelationship     Action = "canCreateRelationship"
	ActionGetACL                 Action = "canGetACL"
	ActionApplyACL               Action = "canApplyACL"
)

// required is the permission each action needs before object state is
// considered.
var required = map[Action]acl.Permission{
	ActionGetProperties:          acl.PermissionRead,
	ActionUpdateProperties:       acl.PermissionWrite,
	ActionDeleteObject:           acl.PermissionWrite,
	ActionMoveObject:             acl.PermissionWrite,
	ActionGetContentStream:       acl.PermissionRead,
	ActionSetContentStream:       acl.PermissionWrite,
	ActionDeleteContentStream:    acl.PermissionWrite,
	ActionCheckOut:               acl.PermissionWrite,
	ActionCancelCheckOut:         acl.PermissionWrite,
	ActionCheckIn:                acl.PermissionWrite,
	ActionGetAllVersions:         acl.PermissionRead,
	ActionGetObjectParents:       acl.PermissionRead,
	ActionAddObjectToFolder:      acl.PermissionWrite,
	ActionRemoveObjectFromFolder: acl.PermissionWrite,
	ActionGetChildren:            acl.PermissionRead,
	ActionGetDescendants:         acl.PermissionRead,
	ActionGetFolderTree:          acl.PermissionRead,
	ActionGetFolderParent:        acl.PermissionRead,
	ActionCreateDocument:         acl.PermissionWrite,
	ActionCreateFolder:           acl.PermissionWrite,
	ActionDeleteTree:             acl.PermissionWrite,
	ActionCreateRelationship:     acl.PermissionRead,
	ActionGetACL:                 acl.PermissionRead,
	ActionApplyACL:               acl.PermissionAll,
}

// Can reports whether permission is enough for action.
func Can(permission acl.Permission, action Action) bool {
	need, ok := required[action]
	return ok && permission.Implies(need)
}

// AllowableActions is the set of actions a principal may invoke on one
// object.
type AllowableActions map[Action]bool

// Can reports whether action is allowed.
func (a AllowableActions) Can(action Action) bool {
	return a[action]
}

// List returns the allowed actions sorted by name.
func (a AllowableActions) List() []Action {
	out := make([]Action, 0, len(a))
	for action, ok := range a {
		if ok {
			out = append(out, action)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllowableActions computes what the calling principal may do with id.
func (s *Service) AllowableActions(ctx context.Context, repositoryID, id string) (_ AllowableActions, err error) {
	defer s.track(repositoryID, "getAllowableActions", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	obj, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	permission := acl.PermissionAll
	if principal := Principal(ctx); principal != "" {
		permission = obj.ACL.Effective(principal)
	}
	if permission == acl.PermissionNone {
		return nil, cmis.Errorf(cmis.ErrPermissionDenied, "%s cannot read %q", Principal(ctx), id)
	}
	t, err := st.Types().GetTypeByID(obj.TypeID)
	if err != nil {
		return nil, err
	}
	return allowable(st, obj, t.Versionable, t.ContentStreamAllowed, permission, Principal(ctx)), nil
}

// allowable narrows the permission-based action set by the object's state
// and the repository's capabilities.
func allowable(st *store.Store, obj *store.Object, versionable bool, contentAllowed cmis.ContentStreamAllowed, permission acl.Permission, principal string) AllowableActions {
	caps := st.Capabilities()
	root := obj.ID == st.RootFolderID()
	checkedOut := obj.CheckedOutBy != ""
	ownsCheckout := checkedOut && (principal == "" || obj.CheckedOutBy == principal)

	state := map[Action]bool{
		ActionGetProperties:    true,
		ActionUpdateProperties: !obj.IsDocument() || !versionable || obj.IsPWC || caps.PWCUpdatable || !checkedOut,
		ActionDeleteObject:     !root,
		ActionGetACL:           caps.ACL != cmis.CapabilityACLNone,
		ActionApplyACL:         caps.ACL == cmis.CapabilityACLManage,
	}
	switch {
	case obj.IsFolder():
		state[ActionGetChildren] = true
		state[ActionGetDescendants] = caps.GetDescendants
		state[ActionGetFolderTree] = caps.GetDescendants
		state[ActionGetFolderParent] = !root
		state[ActionGetObjectParents] = !root
		state[ActionMoveObject] = !root
		state[ActionCreateDocument] = true
		state[ActionCreateFolder] = true
		state[ActionDeleteTree] = !root
	case obj.IsDocument():
		hasContent := obj.Content != nil
		state[ActionGetContentStream] = hasContent
		state[ActionSetContentStream] = contentAllowed != cmis.ContentStreamNotAllowed
		state[ActionDeleteContentStream] = hasContent && contentAllowed != cmis.ContentStreamRequired
		state[ActionGetObjectParents] = true
		state[ActionMoveObject] = len(obj.ParentIDs) > 0
		state[ActionAddObjectToFolder] = caps.MultiFiling || caps.Unfiling
		state[ActionRemoveObjectFromFolder] = (caps.MultiFiling || caps.Unfiling) && len(obj.ParentIDs) > 0
		state[ActionCreateRelationship] = true
		if versionable {
			state[ActionGetAllVersions] = true
			state[ActionCheckOut] = !checkedOut
			state[ActionCheckIn] = obj.IsPWC && ownsCheckout
			state[ActionCancelCheckOut] = obj.IsPWC && ownsCheckout
		}
	case obj.BaseTypeID == cmis.BaseTypePolicy:
		state[ActionCreateRelationship] = true
	}

	out := make(AllowableActions, len(state))
	for action, ok := range state {
		if ok && Can(permission, action) {
			out[action] = true
		}
	}
	return out
}

// GetACL returns the ACL of an object.
func (s *Service) GetACL(ctx context.Context, repositoryID, id string) (_ *acl.Acl, err error) {
	defer s.track(repositoryID, "getACL", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if st.Capabilities().ACL == cmis.CapabilityACLNone {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "repository %q does not expose ACLs", repositoryID)
	}
	if err := authorize(ctx, st, id, acl.PermissionRead); err != nil {
		return nil, err
	}
	return st.ACL(id)
}

// ApplyACL adds and removes access control entries on an object. The
// principal needs ALL on it.
func (s *Service) ApplyACL(ctx context.Context, repositoryID, id string, add, remove []acl.Ace) (_ *acl.Acl, err error) {
	defer s.track(repositoryID, "applyACL", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if st.Capabilities().ACL != cmis.CapabilityACLManage {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "repository %q does not manage ACLs", repositoryID)
	}
	if err := authorize(ctx, st, id, acl.PermissionAll); err != nil {
		return nil, err
	}
	a, err := st.ApplyACL(id, add, remove, Principal(ctx))
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventUpdated, repositoryID, id)
	return a, nil
}
