package service

import (
	"context"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/store"
)

// CheckOut creates the private working copy of a document.
func (s *Service) CheckOut(ctx context.Context, repositoryID, id string) (_ *store.Object, err error) {
	defer s.track(repositoryID, "checkOut", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, id, acl.PermissionWrite); err != nil {
		return nil, err
	}
	pwc, err := st.CheckOut(id, Principal(ctx))
	if err != nil {
		return nil, err
	}
	s.notify(ctx, eventCreated, repositoryID, pwc.ID)
	return pwc, nil
}

// CheckIn turns the PWC into the new latest version. New content is uploaded
// before the store is touched; the replaced stream is released afterwards.
func (s *Service) CheckIn(ctx context.Context, repositoryID, id string, req CheckInRequest) (_ *store.Object, err error) {
	defer s.track(repositoryID, "checkIn", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, id, acl.PermissionWrite); err != nil {
		return nil, err
	}
	stream, err := s.upload(ctx, repositoryID, req.Content)
	if err != nil {
		return nil, err
	}
	version, replaced, err := st.CheckIn(id, store.CheckInParams{
		Major:      req.Major,
		Comment:    req.Comment,
		Properties: req.Properties,
		Content:    stream,
		Principal:  Principal(ctx),
	})
	if err != nil {
		s.discard(ctx, stream)
		return nil, err
	}
	s.release(ctx, st, replaced)
	s.notify(ctx, eventUpdated, repositoryID, version.ID)
	return version, nil
}

// CancelCheckOut discards the PWC of a document.
func (s *Service) CancelCheckOut(ctx context.Context, repositoryID, id string) (err error) {
	defer s.track(repositoryID, "cancelCheckOut", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return err
	}
	if err := authorize(ctx, st, id, acl.PermissionWrite); err != nil {
		return err
	}
	stream, err := st.CancelCheckOut(id, Principal(ctx))
	if err != nil {
		return err
	}
	s.release(ctx, st, stream)
	s.notify(ctx, eventDeleted, repositoryID, id)
	return nil
}

// AllVersions lists the versions of a document, newest first.
func (s *Service) AllVersions(ctx context.Context, repositoryID, id, filter string) (_ []*store.Object, err error) {
	defer s.track(repositoryID, "getAllVersions", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, id, acl.PermissionRead); err != nil {
		return nil, err
	}
	versions, err := st.AllVersions(id)
	if err != nil {
		return nil, err
	}
	for _, v := range versions {
		if err := applyFilter(st.Types(), v, filter); err != nil {
			return nil, err
		}
	}
	return versions, nil
}

// ObjectOfLatestVersion returns the latest (major) version of a document.
func (s *Service) ObjectOfLatestVersion(ctx context.Context, repositoryID, id string, major bool, filter string) (_ *store.Object, err error) {
	defer s.track(repositoryID, "getObjectOfLatestVersion", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	if err := authorize(ctx, st, id, acl.PermissionRead); err != nil {
		return nil, err
	}
	obj, err := st.LatestVersion(id, major)
	if err != nil {
		return nil, err
	}
	if err := applyFilter(st.Types(), obj, filter); err != nil {
		return nil, err
	}
	return obj, nil
}
