package service

import (
	"context"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
)

// checkBaseType makes sure typeID exists and derives from base.
func checkBaseType(st *store.Store, typeID string, base cmis.BaseTypeID) error {
	t, err := st.Types().GetTypeByID(typeID)
	if err != nil {
		return err
	}
	if t.BaseTypeID != base {
		return cmis.Errorf(cmis.ErrInvalidArgument, "type %q is not a %s type", typeID, base)
	}
	return nil
}

// initialACL turns the ACEs of a create request into an ACL. Nil means the
// object inherits its parent's ACL.
func initialACL(st *store.Store, aces []acl.Ace) (*acl.Acl, error) {
	if len(aces) == 0 {
		return nil, nil
	}
	if st.Capabilities().ACL != cmis.CapabilityACLManage {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "repository %q does not manage ACLs", st.RepositoryID())
	}
	for _, ace := range aces {
		if ace.PrincipalID == "" {
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "access control entry without principal")
		}
	}
	return acl.New(aces...), nil
}

func orDefault(typeID string, base cmis.BaseTypeID) string {
	if typeID == "" {
		return string(base)
	}
	return typeID
}

// CreateFolder creates a folder. The principal needs WRITE on the parent.
func (s *Service) CreateFolder(ctx context.Context, repositoryID string, req CreateFolderRequest) (_ *store.Object, err error) {
	defer s.track(repositoryID, "createFolder", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	typeID := orDefault(req.TypeID, cmis.BaseTypeFolder)
	if err := checkBaseType(st, typeID, cmis.BaseTypeFolder); err != nil {
		return nil, err
	}
	if req.ParentID == "" {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "folders need a parent folder")
	}
	if err := authorize(ctx, st, req.ParentID, acl.PermissionWrite); err != nil {
		return nil, err
	}
	initial, err := initialACL(st, req.ACL)
	if err != nil {
		return nil, err
	}
	obj, err := st.Create(store.CreateParams{
		TypeID:     typeID,
		Properties: req.Properties,
		ParentID:   req.ParentID,
		ACL:        initial,
		Principal:  Principal(ctx),
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventCreated, repositoryID, obj.ID)
	return obj, nil
}

// CreateDocument creates a document, uploading its content first. The
// principal needs WRITE on the parent folder.
func (s *Service) CreateDocument(ctx context.Context, repositoryID string, req CreateDocumentRequest) (_ *store.Object, err error) {
	defer s.track(repositoryID, "createDocument", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	typeID := orDefault(req.TypeID, cmis.BaseTypeDocument)
	if err := checkBaseType(st, typeID, cmis.BaseTypeDocument); err != nil {
		return nil, err
	}
	if req.ParentID != "" {
		if err := authorize(ctx, st, req.ParentID, acl.PermissionWrite); err != nil {
			return nil, err
		}
	}
	initial, err := initialACL(st, req.ACL)
	if err != nil {
		return nil, err
	}
	stream, err := s.upload(ctx, repositoryID, req.Content)
	if err != nil {
		return nil, err
	}
	obj, err := st.Create(store.CreateParams{
		TypeID:          typeID,
		Properties:      req.Properties,
		ParentID:        req.ParentID,
		Content:         stream,
		VersioningState: req.VersioningState,
		ACL:             initial,
		Principal:       Principal(ctx),
	})
	if err != nil {
		s.discard(ctx, stream)
		return nil, err
	}
	s.notify(ctx, eventCreated, repositoryID, obj.ID)
	return obj, nil
}

// CreatePolicy creates an unfiled policy object.
func (s *Service) CreatePolicy(ctx context.Context, repositoryID string, req CreatePolicyRequest) (_ *store.Object, err error) {
	defer s.track(repositoryID, "createPolicy", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	typeID := orDefault(req.TypeID, cmis.BaseTypePolicy)
	if err := checkBaseType(st, typeID, cmis.BaseTypePolicy); err != nil {
		return nil, err
	}
	obj, err := st.Create(store.CreateParams{
		TypeID:     typeID,
		Properties: req.Properties,
		Principal:  Principal(ctx),
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventCreated, repositoryID, obj.ID)
	return obj, nil
}

// CreateRelationship links two objects the principal can read.
func (s *Service) CreateRelationship(ctx context.Context, repositoryID string, req CreateRelationshipRequest) (_ *store.Object, err error) {
	defer s.track(repositoryID, "createRelationship", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	typeID := orDefault(req.TypeID, cmis.BaseTypeRelationship)
	if err := checkBaseType(st, typeID, cmis.BaseTypeRelationship); err != nil {
		return nil, err
	}
	for _, id := range []string{req.SourceID, req.TargetID} {
		if id == "" {
			return nil, cmis.Errorf(cmis.ErrInvalidArgument, "relationships need a source and a target")
		}
		if err := authorize(ctx, st, id, acl.PermissionRead); err != nil {
			return nil, err
		}
	}
	props := make(map[string]any, len(req.Properties)+2)
	for k, v := range req.Properties {
		props[k] = v
	}
	props[cmis.PropSourceID] = req.SourceID
	props[cmis.PropTargetID] = req.TargetID
	obj, err := st.Create(store.CreateParams{
		TypeID:     typeID,
		Properties: props,
		Principal:  Principal(ctx),
	})
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventCreated, repositoryID, obj.ID)
	return obj, nil
}

// GetObject returns an object with its properties narrowed by filter.
func (s *Service) GetObject(ctx context.Context, repositoryID, id, filter string) (_ *store.Object, err error) {
	defer s.track(repositoryID, "getObject", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, id, acl.PermissionRead); err != nil {
		return nil, err
	}
	obj, err := st.Get(id)
	if err != nil {
		return nil, err
	}
	if err := applyFilter(st.Types(), obj, filter); err != nil {
		return nil, err
	}
	return obj, nil
}

// GetObjectByPath resolves an absolute path.
func (s *Service) GetObjectByPath(ctx context.Context, repositoryID, path, filter string) (_ *store.Object, err error) {
	defer s.track(repositoryID, "getObjectByPath", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	obj, err := st.GetByPath(path)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, obj.ID, acl.PermissionRead); err != nil {
		return nil, err
	}
	if err := applyFilter(st.Types(), obj, filter); err != nil {
		return nil, err
	}
	return obj, nil
}

// UpdateProperties changes properties after checking the change token.
func (s *Service) UpdateProperties(ctx context.Context, repositoryID, id, changeToken string, props map[string]any) (_ *store.Object, err error) {
	defer s.track(repositoryID, "updateProperties", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, id, acl.PermissionWrite); err != nil {
		return nil, err
	}
	obj, err := st.UpdateProperties(id, changeToken, props, Principal(ctx))
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventUpdated, repositoryID, obj.ID)
	return obj, nil
}

// MoveObject moves an object between folders. The principal needs WRITE on
// the object and on the target folder.
func (s *Service) MoveObject(ctx context.Context, repositoryID, id, targetFolderID, sourceFolderID string) (_ *store.Object, err error) {
	defer s.track(repositoryID, "moveObject", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	for _, target := range []string{id, targetFolderID} {
		if err := authorize(ctx, st, target, acl.PermissionWrite); err != nil {
			return nil, err
		}
	}
	obj, err := st.Move(id, targetFolderID, sourceFolderID, Principal(ctx))
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventUpdated, repositoryID, obj.ID)
	return obj, nil
}

// DeleteObject deletes an object, or the whole version series when
// allVersions is set. Deleting a PWC cancels the checkout.
func (s *Service) DeleteObject(ctx context.Context, repositoryID, id string, allVersions bool) (err error) {
	defer s.track(repositoryID, "deleteObject", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, st, id, acl.PermissionWrite); err != nil {
		return err
	}
	obj, err := st.Get(id)
	if err != nil {
		return err
	}
	var streams []*cmis.ContentStream
	if obj.IsPWC && !allVersions {
		stream, err := st.CancelCheckOut(id, Principal(ctx))
		if err != nil {
			return err
		}
		streams = append(streams, stream)
	} else if streams, err = st.Delete(id, allVersions); err != nil {
		return err
	}
	s.release(ctx, st, streams...)
	s.notify(ctx, eventDeleted, repositoryID, id)
	return nil
}

// DeleteTree deletes a folder and its contents and returns the ids of the
// objects that could not be deleted.
func (s *Service) DeleteTree(ctx context.Context, repositoryID, folderID string, req DeleteTreeRequest) (_ []string, err error) {
	defer s.track(repositoryID, "deleteTree", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, folderID, acl.PermissionWrite); err != nil {
		return nil, err
	}
	failed, streams, err := st.DeleteTree(folderID, store.DeleteTreeParams{
		AllVersions:       req.AllVersions,
		Unfile:            req.Unfile,
		ContinueOnFailure: req.ContinueOnFailure,
		Principal:         Principal(ctx),
	})
	if err != nil {
		return nil, err
	}
	s.release(ctx, st, streams...)
	if len(failed) == 0 {
		s.notify(ctx, eventDeleted, repositoryID, folderID)
	} else {
		s.logger.WarnContext(ctx, "Delete tree left objects behind",
			"repository_id", repositoryID, "folder_id", folderID, "failed", len(failed))
	}
	return failed, nil
}
