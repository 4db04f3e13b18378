package store

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

const pwcLabel = "pwc"

// series resolves id (a series id or the id of any of its versions) to the
// version series.
func (s *Store) series(id string) (*object, error) {
	o, err := s.get(id)
	if err != nil {
		return nil, err
	}
	switch o.kind {
	case KindVersionedDocument:
		return o, nil
	case KindDocumentVersion:
		return s.objects[o.seriesID], nil
	}
	return nil, cmis.Errorf(cmis.ErrConstraint, "object %q is not versionable", id)
}

// canControlCheckout reports whether principal may check in or cancel the
// checkout of series. Internal callers always may.
func canControlCheckout(series *object, principal string) bool {
	return principal == "" || series.checkedOutBy == principal
}

// CheckOut creates the private working copy of a version series. The PWC
// starts as a copy of the latest version, sharing its content stream.
func (s *Store) CheckOut(id, principal string) (*Object, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, err := s.series(id)
	if err != nil {
		return nil, err
	}
	if s.pwcOf(series) != nil {
		return nil, cmis.Errorf(cmis.ErrConstraint, "document %q is already checked out by %q", series.id, series.checkedOutBy)
	}
	latest := s.latest(series, false)
	now := s.now().UTC()
	pwc := &object{
		id:         s.newID(),
		kind:       KindDocumentVersion,
		typeID:     latest.typeID,
		baseTypeID: latest.baseTypeID,
		createdBy:  principal,
		modifiedBy: principal,
		created:    now,
		modified:   now,
		props:      cloneProps(latest.props),
		content:    latest.content.Clone(),
		seriesID:   series.id,
		pwc:        true,
		label:      pwcLabel,
	}
	series.versions = append(series.versions, pwc.id)
	series.checkedOutBy = principal
	s.insert(pwc)
	s.touch(series, principal)
	return s.snapshot(pwc), nil
}

// CheckInParams are the changes applied when a PWC becomes a version.
type CheckInParams struct {
	Major   bool
	Comment string
	// Properties are applied to the new version like UpdateProperties.
	Properties map[string]any
	// Content replaces the PWC content when not nil.
	Content   *cmis.ContentStream
	Principal string
}

// CheckIn turns the PWC of the series id belongs to into its new latest
// version. It returns the new version and the content stream it replaced,
// if any.
func (s *Store) CheckIn(id string, p CheckInParams) (*Object, *cmis.ContentStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, err := s.series(id)
	if err != nil {
		return nil, nil, err
	}
	pwc := s.pwcOf(series)
	if pwc == nil {
		return nil, nil, cmis.Errorf(cmis.ErrConstraint, "document %q is not checked out", series.id)
	}
	if !canControlCheckout(series, p.Principal) {
		return nil, nil, cmis.Errorf(cmis.ErrPermissionDenied, "document %q is checked out by %q", series.id, series.checkedOutBy)
	}
	t, err := s.types.GetTypeByID(pwc.typeID)
	if err != nil {
		return nil, nil, err
	}
	if p.Content != nil && t.ContentStreamAllowed == cmis.ContentStreamNotAllowed {
		return nil, nil, cmis.Errorf(cmis.ErrConstraint, "type %q does not allow content", t.ID)
	}
	changes, newName, err := s.prepareUpdate(t, pwc, p.Properties, true)
	if err != nil {
		return nil, nil, err
	}
	if newName != "" {
		if err := s.rename(pwc, newName, p.Principal); err != nil {
			return nil, nil, err
		}
	}

	var replaced *cmis.ContentStream
	if p.Content != nil {
		replaced = pwc.content
		pwc.content = p.Content.Clone()
	}
	applyChanges(pwc, changes)
	pwc.label = nextLabel(s.latest(series, false), p.Major)
	pwc.pwc = false
	pwc.major = p.Major
	pwc.comment = p.Comment
	series.checkedOutBy = ""
	s.touch(pwc, p.Principal)
	s.touch(series, p.Principal)
	return s.snapshot(pwc), replaced, nil
}

// CancelCheckOut discards the PWC as if it never existed. A document that
// was created checked out has no other version and is removed entirely. The
// discarded content stream is returned.
func (s *Store) CancelCheckOut(id, principal string) (*cmis.ContentStream, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	series, err := s.series(id)
	if err != nil {
		return nil, err
	}
	pwc := s.pwcOf(series)
	if pwc == nil {
		return nil, cmis.Errorf(cmis.ErrConstraint, "document %q is not checked out", series.id)
	}
	if !canControlCheckout(series, principal) {
		return nil, cmis.Errorf(cmis.ErrPermissionDenied, "document %q is checked out by %q", series.id, series.checkedOutBy)
	}
	if len(series.versions) == 1 {
		s.removeSeries(series)
		return pwc.content, nil
	}
	series.versions = series.versions[:len(series.versions)-1]
	series.checkedOutBy = ""
	delete(s.objects, pwc.id)
	s.touch(series, principal)
	return pwc.content, nil
}

// nextLabel computes the label following prev: N.0 -> (N+1).0 for a major
// version, N.m -> N.(m+1) for a minor one.
func nextLabel(prev *object, major bool) string {
	maj, mnr := 0, 0
	if prev != nil {
		maj, mnr = parseLabel(prev.label)
	}
	if major {
		return fmt.Sprintf("%d.0", maj+1)
	}
	return fmt.Sprintf("%d.%d", maj, mnr+1)
}

func parseLabel(label string) (int, int) {
	majStr, minStr, _ := strings.Cut(label, ".")
	maj, _ := strconv.Atoi(majStr)
	mnr, _ := strconv.Atoi(minStr)
	return maj, mnr
}

// AllVersions returns the versions of the series id belongs to, newest
// first, the PWC (if any) leading.
func (s *Store) AllVersions(id string) ([]*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, err := s.series(id)
	if err != nil {
		return nil, err
	}
	out := make([]*Object, 0, len(series.versions))
	for i := len(series.versions) - 1; i >= 0; i-- {
		out = append(out, s.snapshot(s.objects[series.versions[i]]))
	}
	return out, nil
}

// LatestVersion returns the latest version of a series, or the latest major
// version when major is set.
func (s *Store) LatestVersion(id string, major bool) (*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, err := s.series(id)
	if err != nil {
		return nil, err
	}
	for i := len(series.versions) - 1; i >= 0; i-- {
		v := s.objects[series.versions[i]]
		if v.pwc || (major && !v.major) {
			continue
		}
		return s.snapshot(v), nil
	}
	return nil, cmis.Errorf(cmis.ErrObjectNotFound, "document %q has no matching version", series.id)
}

// IsCheckedOut reports whether the series id belongs to has a PWC.
func (s *Store) IsCheckedOut(id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series, err := s.series(id)
	if err != nil {
		return false, err
	}
	return s.pwcOf(series) != nil, nil
}

// CheckedOut lists the PWCs visible to principal, optionally only those of
// documents filed in folderID, sorted by name.
func (s *Store) CheckedOut(folderID, principal string) ([]*Object, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if folderID != "" {
		if _, err := s.parentFolder(folderID); err != nil {
			return nil, err
		}
	}
	var pwcs []*object
	for _, o := range s.objects {
		if o.kind != KindVersionedDocument || !s.visible(o, principal) {
			continue
		}
		if folderID != "" && !o.filing.has(folderID) {
			continue
		}
		if pwc := s.pwcOf(o); pwc != nil {
			pwcs = append(pwcs, pwc)
		}
	}
	sort.Slice(pwcs, func(i, j int) bool {
		ni, nj := s.identity(pwcs[i]).name, s.identity(pwcs[j]).name
		if ni != nj {
			return ni < nj
		}
		return pwcs[i].id < pwcs[j].id
	})
	out := make([]*Object, 0, len(pwcs))
	for _, pwc := range pwcs {
		out = append(out, s.snapshot(pwc))
	}
	return out, nil
}
