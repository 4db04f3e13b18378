package store

import (
	"sort"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

func (s *Store) link(childID, parentID string) {
	set, ok := s.children[parentID]
	if !ok {
		set = make(map[string]struct{})
		s.children[parentID] = set
	}
	set[childID] = struct{}{}
}

func (s *Store) unlink(childID, parentID string) {
	set := s.children[parentID]
	delete(set, childID)
	if len(set) == 0 {
		delete(s.children, parentID)
	}
}

// childNamed returns the child of folderID named name, ignoring except.
func (s *Store) childNamed(folderID, name, except string) *object {
	for id := range s.children[folderID] {
		if id == except {
			continue
		}
		if c := s.objects[id]; c != nil && c.name == name {
			return c
		}
	}
	return nil
}

// fileable returns the object carrying the filing of id, or a constraint
// error for unfileable objects.
func (s *Store) fileable(id string) (*object, error) {
	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	ident := s.identity(o)
	if ident.filing == nil {
		return nil, cmis.Errorf(cmis.ErrConstraint, "object %q is not fileable", id)
	}
	return ident, nil
}

// Rename changes the name of an object after checking its siblings in every
// parent folder.
func (s *Store) Rename(id, newName, principal string) (*Object, error) {
	if err := validateName(newName); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	if err := s.rename(o, newName, principal); err != nil {
		return nil, err
	}
	return s.snapshot(o), nil
}

func (s *Store) rename(o *object, newName, principal string) error {
	ident := s.identity(o)
	if ident.id == s.rootID {
		return cmis.Errorf(cmis.ErrConstraint, "the root folder cannot be renamed")
	}
	if ident.name == newName {
		return nil
	}
	for _, p := range s.parentsOf(ident) {
		if s.childNamed(p, newName, ident.id) != nil {
			return cmis.Errorf(cmis.ErrNameConstraintViolation, "%q already exists in folder %q", newName, p)
		}
	}
	ident.name = newName
	s.touch(o, principal)
	if ident != o {
		s.touch(ident, principal)
	}
	return nil
}

// Move moves an object from sourceID to targetID. sourceID may be empty for
// objects with exactly one parent.
func (s *Store) Move(id, targetID, sourceID, principal string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	ident, err := s.fileable(id)
	if err != nil {
		return nil, err
	}
	if ident.id == s.rootID {
		return nil, cmis.Errorf(cmis.ErrConstraint, "the root folder cannot be moved")
	}
	target, err := s.parentFolder(targetID)
	if err != nil {
		return nil, err
	}

	parents := ident.filing.parents()
	switch {
	case sourceID == "" && len(parents) == 1:
		sourceID = parents[0]
	case sourceID == "":
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "object %q has %d parents, a source folder is required", id, len(parents))
	case !ident.filing.has(sourceID):
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "object %q is not filed in %q", id, sourceID)
	}
	if sourceID == target.id {
		return s.snapshot(o), nil
	}
	if ident.filing.has(target.id) {
		return nil, cmis.Errorf(cmis.ErrConstraint, "object %q is already filed in %q", id, target.id)
	}
	if ident.isFolder() && s.isAncestor(ident.id, target.id) {
		return nil, cmis.Errorf(cmis.ErrConstraint, "folder %q cannot be moved into its own subtree", id)
	}
	if s.childNamed(target.id, ident.name, ident.id) != nil {
		return nil, cmis.Errorf(cmis.ErrNameConstraintViolation, "%q already exists in folder %q", ident.name, target.id)
	}

	switch f := ident.filing.(type) {
	case *singleFiling:
		f.parentID = target.id
	case *multiFiling:
		f.remove(sourceID)
		f.add(target.id)
	}
	s.unlink(ident.id, sourceID)
	s.link(ident.id, target.id)
	s.touch(ident, principal)
	return s.snapshot(o), nil
}

// isAncestor reports whether folder ancestorID is folderID or one of its
// ancestors.
func (s *Store) isAncestor(ancestorID, folderID string) bool {
	for cur := folderID; cur != ""; {
		if cur == ancestorID {
			return true
		}
		f := s.objects[cur]
		if f == nil || f.filing == nil {
			return false
		}
		ps := f.filing.parents()
		if len(ps) == 0 {
			return false
		}
		cur = ps[0]
	}
	return false
}

// AddToFolder files a multi-filed object in an additional folder.
func (s *Store) AddToFolder(id, folderID, principal string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	ident, err := s.fileable(id)
	if err != nil {
		return nil, err
	}
	mf, ok := ident.filing.(*multiFiling)
	if !ok || (!s.caps.MultiFiling && len(mf.parentIDs) > 0) {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "object %q cannot be filed in more than one folder", id)
	}
	folder, err := s.parentFolder(folderID)
	if err != nil {
		return nil, err
	}
	if mf.has(folder.id) {
		return nil, cmis.Errorf(cmis.ErrConstraint, "object %q is already filed in %q", id, folder.id)
	}
	if s.childNamed(folder.id, ident.name, ident.id) != nil {
		return nil, cmis.Errorf(cmis.ErrNameConstraintViolation, "%q already exists in folder %q", ident.name, folder.id)
	}
	mf.add(folder.id)
	s.link(ident.id, folder.id)
	s.touch(ident, principal)
	return s.snapshot(o), nil
}

// RemoveFromFolder removes an object from folderID, or from every folder
// when folderID is empty. Removing the last parent requires unfiling
// support and leaves the object with an empty parent set.
func (s *Store) RemoveFromFolder(id, folderID, principal string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	ident, err := s.fileable(id)
	if err != nil {
		return nil, err
	}
	mf, ok := ident.filing.(*multiFiling)
	if !ok {
		return nil, cmis.Errorf(cmis.ErrNotSupported, "object %q is single-filed", id)
	}
	remove := []string{folderID}
	if folderID == "" {
		remove = mf.parents()
	} else if !mf.has(folderID) {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "object %q is not filed in %q", id, folderID)
	}
	if len(remove) == len(mf.parentIDs) && !s.caps.Unfiling {
		return nil, cmis.Errorf(cmis.ErrConstraint, "object %q cannot be unfiled", id)
	}
	for _, p := range remove {
		mf.remove(p)
		s.unlink(ident.id, p)
	}
	s.touch(ident, principal)
	return s.snapshot(o), nil
}

// sortedChildren returns the visible listing entries of folderID sorted by
// name. Version series are replaced by their latest version.
func (s *Store) sortedChildren(folderID, principal string, foldersOnly bool) []*object {
	var out []*object
	for id := range s.children[folderID] {
		c := s.objects[id]
		if foldersOnly && !c.isFolder() {
			continue
		}
		if !s.visible(c, principal) {
			continue
		}
		if l := s.listed(c); l != nil {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		ni, nj := s.identity(out[i]).name, s.identity(out[j]).name
		if ni != nj {
			return ni < nj
		}
		return out[i].id < out[j].id
	})
	return out
}

// Children lists the children of a folder visible to principal, sorted by
// name. skipCount and maxItems select the window; a negative maxItems means
// no limit and zero returns an empty window. NumItems counts every visible
// child.
func (s *Store) Children(folderID string, maxItems, skipCount int, principal string) (*Page, error) {
	if skipCount < 0 {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "skipCount must not be negative")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.parentFolder(folderID); err != nil {
		return nil, err
	}
	all := s.sortedChildren(folderID, principal, false)
	start := min(skipCount, len(all))
	end := len(all)
	if maxItems >= 0 {
		end = min(start+maxItems, len(all))
	}
	page := &Page{NumItems: len(all), HasMoreItems: end < len(all), Objects: make([]*Object, 0, end-start)}
	for _, c := range all[start:end] {
		page.Objects = append(page.Objects, s.snapshot(c))
	}
	return page, nil
}

// Descendants returns the subtree below folderID. depth -1 is unlimited;
// foldersOnly restricts the tree to folders.
func (s *Store) Descendants(folderID string, depth int, foldersOnly bool, principal string) ([]*Container, error) {
	if depth == 0 || depth < -1 {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "depth must be -1 or greater than 0, got %d", depth)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, err := s.parentFolder(folderID); err != nil {
		return nil, err
	}
	return s.tree(folderID, depth, foldersOnly, principal), nil
}

func (s *Store) tree(folderID string, depth int, foldersOnly bool, principal string) []*Container {
	var out []*Container
	for _, c := range s.sortedChildren(folderID, principal, foldersOnly) {
		node := &Container{Object: s.snapshot(c)}
		if c.isFolder() && depth != 1 {
			next := depth - 1
			if depth == -1 {
				next = -1
			}
			node.Children = s.tree(c.id, next, foldersOnly, principal)
		}
		out = append(out, node)
	}
	return out
}

// FolderParent returns the parent of a folder.
func (s *Store) FolderParent(folderID string) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, err := s.parentFolder(folderID)
	if err != nil {
		return nil, err
	}
	if f.id == s.rootID {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "the root folder has no parent")
	}
	return s.snapshot(s.objects[f.filing.parents()[0]]), nil
}

// ObjectParents returns the parent folders of a fileable object that
// principal may read.
func (s *Store) ObjectParents(id, principal string) ([]*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ident, err := s.fileable(id)
	if err != nil {
		return nil, err
	}
	if ident.id == s.rootID {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "the root folder has no parent")
	}
	var out []*Object
	for _, p := range ident.filing.parents() {
		if f := s.objects[p]; s.visible(f, principal) {
			out = append(out, s.snapshot(f))
		}
	}
	return out, nil
}
