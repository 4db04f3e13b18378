package service

import (
	"context"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
)

// Children lists one page of the children of a folder. A negative maxItems
// means no limit.
func (s *Service) Children(ctx context.Context, repositoryID, folderID string, maxItems, skipCount int, filter string) (_ *store.Page, err error) {
	defer s.track(repositoryID, "getChildren", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, folderID, acl.PermissionRead); err != nil {
		return nil, err
	}
	page, err := st.Children(folderID, maxItems, skipCount, Principal(ctx))
	if err != nil {
		return nil, err
	}
	for _, obj := range page.Objects {
		if err := applyFilter(st.Types(), obj, filter); err != nil {
			return nil, err
		}
	}
	return page, nil
}

// Descendants returns the tree below a folder. foldersOnly gives the
// getFolderTree projection.
func (s *Service) Descendants(ctx context.Context, repositoryID, folderID string, depth int, foldersOnly bool, filter string) (_ []*store.Container, err error) {
	op := "getDescendants"
	if foldersOnly {
		op = "getFolderTree"
	}
	defer s.track(repositoryID, op, time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if !st.Capabilities().GetDescendants {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "repository %q does not support %s", repositoryID, op)
	}
	if err := authorize(ctx, st, folderID, acl.PermissionRead); err != nil {
		return nil, err
	}
	tree, err := st.Descendants(folderID, depth, foldersOnly, Principal(ctx))
	if err != nil {
		return nil, err
	}
	if err := filterTree(st, tree, filter); err != nil {
		return nil, err
	}
	return tree, nil
}

func filterTree(st *store.Store, nodes []*store.Container, filter string) error {
	for _, n := range nodes {
		if err := applyFilter(st.Types(), n.Object, filter); err != nil {
			return err
		}
		if err := filterTree(st, n.Children, filter); err != nil {
			return err
		}
	}
	return nil
}

// FolderParent returns the parent of a folder.
func (s *Service) FolderParent(ctx context.Context, repositoryID, folderID string) (_ *store.Object, err error) {
	defer s.track(repositoryID, "getFolderParent", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, folderID, acl.PermissionRead); err != nil {
		return nil, err
	}
	parent, err := st.FolderParent(folderID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, parent.ID, acl.PermissionRead); err != nil {
		return nil, err
	}
	return parent, nil
}

// ObjectParents returns the folders an object is filed in.
func (s *Service) ObjectParents(ctx context.Context, repositoryID, id string) (_ []*store.Object, err error) {
	defer s.track(repositoryID, "getObjectParents", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, id, acl.PermissionRead); err != nil {
		return nil, err
	}
	return st.ObjectParents(id, Principal(ctx))
}

// AddObjectToFolder files an object in an additional folder.
func (s *Service) AddObjectToFolder(ctx context.Context, repositoryID, id, folderID string) (_ *store.Object, err error) {
	defer s.track(repositoryID, "addObjectToFolder", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	caps := st.Capabilities()
	if !caps.MultiFiling && !caps.Unfiling {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "repository %q does not support multi-filing", repositoryID)
	}
	for _, target := range []string{id, folderID} {
		if err := authorize(ctx, st, target, acl.PermissionWrite); err != nil {
			return nil, err
		}
	}
	obj, err := st.AddToFolder(id, folderID, Principal(ctx))
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventUpdated, repositoryID, obj.ID)
	return obj, nil
}

// RemoveObjectFromFolder removes an object from one folder, or from all of
// them when folderID is empty.
func (s *Service) RemoveObjectFromFolder(ctx context.Context, repositoryID, id, folderID string) (_ *store.Object, err error) {
	defer s.track(repositoryID, "removeObjectFromFolder", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	caps := st.Capabilities()
	if !caps.MultiFiling && !caps.Unfiling {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "repository %q does not support multi-filing", repositoryID)
	}
	targets := []string{id}
	if folderID != "" {
		targets = append(targets, folderID)
	}
	for _, target := range targets {
		if err := authorize(ctx, st, target, acl.PermissionWrite); err != nil {
			return nil, err
		}
	}
	obj, err := st.RemoveFromFolder(id, folderID, Principal(ctx))
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventUpdated, repositoryID, obj.ID)
	return obj, nil
}

// CheckedOutDocs lists private working copies, optionally only those filed
// in folderID.
func (s *Service) CheckedOutDocs(ctx context.Context, repositoryID, folderID, filter string) (_ []*store.Object, err error) {
	defer s.track(repositoryID, "getCheckedOutDocs", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if folderID != "" {
		if err := authorize(ctx, st, folderID, acl.PermissionRead); err != nil {
			return nil, err
		}
	}
	docs, err := st.CheckedOut(folderID, Principal(ctx))
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if err := applyFilter(st.Types(), d, filter); err != nil {
			return nil, err
		}
	}
	return docs, nil
}
