package service

import (
	"context"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis/query"
)

// Query runs a CMIS-SQL statement against a repository. Rows the principal
// cannot read are never returned.
func (s *Service) Query(ctx context.Context, repositoryID string, req QueryRequest) (_ *query.Result, err error) {
	defer s.track(repositoryID, "query", time.Now(), &err)

	st, err := s.repository(repositoryID)
	if err != nil {
		return nil, err
	}
	res, err := st.Query(req.Statement, query.ExecOptions{
		Principal:         Principal(ctx),
		SearchAllVersions: req.SearchAllVersions,
		MaxItems:          req.MaxItems,
		SkipCount:         req.SkipCount,
	})
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "Query executed", "repository_id", repositoryID, "rows", len(res.Rows))
	return res, nil
}
