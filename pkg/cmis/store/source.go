package store

import (
	"strings"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/query"
)

var _ query.Source = (*Store)(nil)

// Scan returns snapshots of the query candidates of the store: the latest
// version of every version series, older versions when opts.AllVersions is
// set and the repository allows it, and PWCs when they are searchable.
// Version series containers themselves are never candidates.
func (s *Store) Scan(opts query.ScanOptions) []query.Candidate {
	types := make(map[string]struct{}, len(opts.TypeIDs))
	for _, id := range opts.TypeIDs {
		types[id] = struct{}{}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []query.Candidate
	for _, o := range s.objects {
		if _, ok := types[o.typeID]; !ok {
			continue
		}
		if !s.searchable(o, opts.AllVersions) || !s.visible(o, opts.Principal) {
			continue
		}
		out = append(out, s.snapshot(o))
	}
	return out
}

func (s *Store) searchable(o *object, allVersions bool) bool {
	switch o.kind {
	case KindVersionedDocument:
		return false
	case KindDocumentVersion:
		if o.pwc {
			return s.caps.PWCSearchable
		}
		if allVersions && s.caps.AllVersionsSearchable {
			return true
		}
		return s.latest(s.objects[o.seriesID], false) == o
	}
	return true
}

// InFolder reports whether c is filed directly in folderID.
func (s *Store) InFolder(c query.Candidate, folderID string) bool {
	obj, ok := c.(*Object)
	if !ok {
		return false
	}
	for _, p := range obj.ParentIDs {
		if p == folderID {
			return true
		}
	}
	return false
}

// InTree reports whether folderID is an ancestor of c on any filing path.
func (s *Store) InTree(c query.Candidate, folderID string) bool {
	obj, ok := c.(*Object)
	if !ok {
		return false
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	pending := append([]string(nil), obj.ParentIDs...)
	for len(pending) > 0 {
		id := pending[len(pending)-1]
		pending = pending[:len(pending)-1]
		if id == folderID {
			return true
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if f, ok := s.objects[id]; ok && f.filing != nil {
			pending = append(pending, f.filing.parents()...)
		}
	}
	return false
}

// FullText returns the indexed text of c: its name and description followed
// by the values of its custom string properties.
func (s *Store) FullText(c query.Candidate) string {
	obj, ok := c.(*Object)
	if !ok {
		return ""
	}
	var b strings.Builder
	b.WriteString(obj.Name)
	for id, v := range obj.Properties {
		if strings.HasPrefix(id, "cmis:") && id != cmis.PropDescription {
			continue
		}
		switch v := v.(type) {
		case string:
			b.WriteString(" ")
			b.WriteString(v)
		case []any:
			for _, item := range v {
				if str, ok := item.(string); ok {
					b.WriteString(" ")
					b.WriteString(str)
				}
			}
		}
	}
	return b.String()
}

// Query compiles statement against the store's types and executes it.
func (s *Store) Query(statement string, opts query.ExecOptions) (*query.Result, error) {
	if !s.caps.QueryEnabled() {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "repository %q does not support queries", s.id)
	}
	q, err := query.Compile(statement, s.types, query.WithFullText(s.caps.FullTextEnabled()))
	if err != nil {
		return nil, err
	}
	return q.Execute(s, opts)
}
