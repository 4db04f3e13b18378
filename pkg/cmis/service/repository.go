package service

import (
	"context"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

// RepositoryInfos describes every repository.
func (s *Service) RepositoryInfos(ctx context.Context) []cmis.RepositoryInfo {
	repos := s.manager.Repositories()
	out := make([]cmis.RepositoryInfo, 0, len(repos))
	for _, r := range repos {
		out = append(out, r.Info())
	}
	return out
}

// RepositoryInfo describes one repository.
func (s *Service) RepositoryInfo(ctx context.Context, repositoryID string) (_ cmis.RepositoryInfo, err error) {
	defer s.track(repositoryID, "getRepositoryInfo", time.Now(), &err)

	r, err := s.manager.Repository(repositoryID)
	if err != nil {
		return cmis.RepositoryInfo{}, err
	}
	return r.Info(), nil
}

// TypeDefinition returns one type with its property definitions.
func (s *Service) TypeDefinition(ctx context.Context, repositoryID, typeID string) (_ *typedef.TypeDefinition, err error) {
	defer s.track(repositoryID, "getTypeDefinition", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	return st.Types().GetTypeByID(typeID)
}

// TypeChildren returns the direct subtypes of typeID, or the base types
// when typeID is empty.
func (s *Service) TypeChildren(ctx context.Context, repositoryID, typeID string, includeProps bool) (_ []*typedef.TypeDefinition, err error) {
	defer s.track(repositoryID, "getTypeChildren", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	return st.Types().Children(typeID, includeProps)
}

// TypeDescendants returns the subtype tree of typeID up to depth levels;
// depth -1 is unlimited.
func (s *Service) TypeDescendants(ctx context.Context, repositoryID, typeID string, depth int, includeProps bool) (_ []*typedef.TypeContainer, err error) {
	defer s.track(repositoryID, "getTypeDescendants", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	return st.Types().Descendants(typeID, depth, includeProps)
}

// CreateType registers a custom subtype. It inherits the flags and property
// definitions of its parent and adds req.Properties.
func (s *Service) CreateType(ctx context.Context, repositoryID string, req CreateTypeRequest) (_ *typedef.TypeDefinition, err error) {
	defer s.track(repositoryID, "createType", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	types := st.Types()
	t, err := types.CreateChildType(req.ParentID, req.ID, req.DisplayName)
	if err != nil {
		return nil, err
	}
	if req.QueryName != "" {
		t.QueryName = req.QueryName
	}
	t.Description = req.Description
	if err := types.MergeCustomProperties(t, req.Properties...); err != nil {
		return nil, err
	}
	if err := types.AddType(t); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Type created", "repository_id", repositoryID, "type_id", t.ID, "parent_type_id", t.ParentTypeID)
	return types.GetTypeByID(t.ID)
}
