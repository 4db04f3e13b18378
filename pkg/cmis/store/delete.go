package store

import (
	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
)

// Delete removes an object. A folder must be empty. For a document version,
// allVersions removes the whole series; otherwise only that version goes,
// and deleting a PWC cancels the checkout. Relationships pointing at a
// deleted object are removed with it. The content streams no longer held by
// the deleted objects are returned.
func (s *Store) Delete(id string, allVersions bool) ([]*cmis.ContentStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if o.id == s.rootID {
		return nil, cmis.Errorf(cmis.ErrConstraint, "the root folder cannot be deleted")
	}
	if o.isFolder() && len(s.children[o.id]) > 0 {
		return nil, cmis.Errorf(cmis.ErrConstraint, "folder %q is not empty", id)
	}

	switch o.kind {
	case KindVersionedDocument:
		return s.removeSeries(o), nil
	case KindDocumentVersion:
		series := s.objects[o.seriesID]
		if allVersions || len(series.versions) == 1 {
			return s.removeSeries(series), nil
		}
		return s.removeVersion(series, o), nil
	}
	return s.removeObject(o), nil
}

// removeObject drops a non-versioned object and its relationships.
func (s *Store) removeObject(o *object) []*cmis.ContentStream {
	var streams []*cmis.ContentStream
	if o.content != nil {
		streams = append(streams, o.content)
	}
	if o.filing != nil {
		for _, p := range o.filing.parents() {
			s.unlink(o.id, p)
		}
	}
	delete(s.children, o.id)
	delete(s.objects, o.id)
	return append(streams, s.removeRelationships(o.id)...)
}

// removeSeries drops a version series with all versions.
func (s *Store) removeSeries(series *object) []*cmis.ContentStream {
	var streams []*cmis.ContentStream
	for _, vid := range series.versions {
		v := s.objects[vid]
		if v.content != nil {
			streams = append(streams, v.content)
		}
		delete(s.objects, vid)
		streams = append(streams, s.removeRelationships(vid)...)
	}
	return append(streams, s.removeObject(series)...)
}

// removeVersion drops one version of a series that keeps at least one
// other version.
func (s *Store) removeVersion(series, v *object) []*cmis.ContentStream {
	kept := series.versions[:0:0]
	for _, vid := range series.versions {
		if vid != v.id {
			kept = append(kept, vid)
		}
	}
	if v.pwc {
		series.checkedOutBy = ""
	}
	if pwc := s.pwcOf(series); pwc != nil && len(kept) == 1 && kept[0] == pwc.id {
		// Only the PWC would remain; it cannot stand alone.
		return s.removeSeries(series)
	}
	series.versions = kept
	delete(s.objects, v.id)
	s.touch(series, "")
	var streams []*cmis.ContentStream
	if v.content != nil {
		streams = append(streams, v.content)
	}
	return append(streams, s.removeRelationships(v.id)...)
}

func (s *Store) removeRelationships(objectID string) []*cmis.ContentStream {
	var streams []*cmis.ContentStream
	for _, r := range s.objects {
		if r.kind == KindRelationship && (r.sourceID == objectID || r.targetID == objectID) {
			streams = append(streams, s.removeObject(r)...)
		}
	}
	return streams
}

// DeleteTreeParams control DeleteTree.
type DeleteTreeParams struct {
	// AllVersions must be set: a filed version series is always removed
	// as a whole.
	AllVersions       bool
	Unfile            cmis.UnfileObject
	ContinueOnFailure bool
	Principal         string
}

// DeleteTree deletes folderID and everything below it. Objects the principal
// may not write are left in place and reported, together with the folders
// that therefore stay non-empty. Without ContinueOnFailure the walk stops at
// the first failure. The content streams of deleted objects are returned.
func (s *Store) DeleteTree(folderID string, p DeleteTreeParams) ([]string, []*cmis.ContentStream, error) {
	if !p.AllVersions {
		return nil, nil, cmis.Errorf(cmis.ErrNotSupported, "deleteTree always deletes all versions")
	}
	switch p.Unfile {
	case "":
		p.Unfile = cmis.UnfileObjectDelete
	case cmis.UnfileObjectDelete, cmis.UnfileObjectDeleteSingleFiled:
	case cmis.UnfileObjectUnfile:
		if !s.caps.Unfiling {
			return nil, nil, cmis.Errorf(cmis.ErrNotSupported, "unfiling is not supported")
		}
	default:
		return nil, nil, cmis.Errorf(cmis.ErrInvalidArgument, "unknown unfileObjects value %q", p.Unfile)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	root, err := s.parentFolder(folderID)
	if err != nil {
		return nil, nil, err
	}
	if root.id == s.rootID {
		return nil, nil, cmis.Errorf(cmis.ErrConstraint, "the root folder cannot be deleted")
	}

	w := &treeDeleter{s: s, p: p}
	w.folder(root)
	return w.failed, w.streams, nil
}

type treeDeleter struct {
	s       *Store
	p       DeleteTreeParams
	failed  []string
	streams []*cmis.ContentStream
	stopped bool
}

func (w *treeDeleter) fail(id string) {
	w.failed = append(w.failed, id)
	if !w.p.ContinueOnFailure {
		w.stopped = true
	}
}

func (w *treeDeleter) writable(o *object) bool {
	return w.p.Principal == "" || w.s.aclOf(o).HasPermission(w.p.Principal, acl.PermissionWrite)
}

// folder deletes the contents of f depth first, then f itself.
func (w *treeDeleter) folder(f *object) {
	if !w.writable(f) {
		w.fail(f.id)
		return
	}
	for childID := range w.s.children[f.id] {
		if w.stopped {
			return
		}
		c := w.s.objects[childID]
		if c.isFolder() {
			w.folder(c)
			continue
		}
		w.entry(f, c)
	}
	if w.stopped {
		return
	}
	if len(w.s.children[f.id]) > 0 {
		w.fail(f.id)
		return
	}
	w.streams = append(w.streams, w.s.removeObject(f)...)
}

// entry handles one non-folder child c of folder f.
func (w *treeDeleter) entry(f, c *object) {
	if !w.writable(c) {
		w.fail(c.id)
		return
	}
	if mf, ok := c.filing.(*multiFiling); ok {
		elsewhere := len(mf.parentIDs) > 1
		switch {
		case w.p.Unfile == cmis.UnfileObjectUnfile,
			w.p.Unfile == cmis.UnfileObjectDeleteSingleFiled && elsewhere:
			mf.remove(f.id)
			w.s.unlink(c.id, f.id)
			w.s.touch(c, w.p.Principal)
			return
		}
	}
	if c.kind == KindVersionedDocument {
		w.streams = append(w.streams, w.s.removeSeries(c)...)
		return
	}
	w.streams = append(w.streams, w.s.removeObject(c)...)
}
