package store

import (
	"strconv"
	"time"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
)

// Kind is the tag of the stored-object union.
type Kind int

const (
	KindDocument Kind = iota
	KindFolder
	KindVersionedDocument
	KindDocumentVersion
	KindRelationship
	KindPolicy
)

var kindNames = [...]string{"document", "folder", "versionedDocument", "documentVersion", "relationship", "policy"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// filing is the parent relation of a fileable object.
type filing interface {
	parents() []string
	has(folderID string) bool
}

// singleFiling holds exactly one parent; only the root folder has none.
type singleFiling struct {
	parentID string
}

func (f *singleFiling) parents() []string {
	if f.parentID == "" {
		return nil
	}
	return []string{f.parentID}
}

func (f *singleFiling) has(folderID string) bool { return f.parentID == folderID }

// multiFiling holds a duplicate-free parent set. An unfiled object has an
// empty, non-nil set.
type multiFiling struct {
	parentIDs []string
}

func (f *multiFiling) parents() []string {
	return append([]string{}, f.parentIDs...)
}

func (f *multiFiling) has(folderID string) bool {
	for _, p := range f.parentIDs {
		if p == folderID {
			return true
		}
	}
	return false
}

func (f *multiFiling) add(folderID string) {
	f.parentIDs = append(f.parentIDs, folderID)
}

func (f *multiFiling) remove(folderID string) {
	for i, p := range f.parentIDs {
		if p == folderID {
			f.parentIDs = append(f.parentIDs[:i:i], f.parentIDs[i+1:]...)
			return
		}
	}
}

// object is the canonical, mutable record kept in the store. Fields that do
// not apply to a kind stay at their zero value: a version has no filing,
// name or acl of its own and delegates them to its series.
type object struct {
	id         string
	kind       Kind
	typeID     string
	baseTypeID cmis.BaseTypeID
	name       string
	createdBy  string
	modifiedBy string
	created    time.Time
	modified   time.Time
	token      int64
	props      map[string]any
	filing     filing
	content    *cmis.ContentStream
	acl        *acl.Acl

	// versioned document
	versions     []string
	checkedOutBy string

	// document version
	seriesID string
	major    bool
	pwc      bool
	label    string
	comment  string

	// relationship
	sourceID string
	targetID string
}

func (o *object) isFolder() bool { return o.kind == KindFolder }

// Object is a read-only snapshot of a stored object as clients see it.
// Properties holds the complete property set, system properties included.
type Object struct {
	ID              string              `json:"id"`
	Kind            Kind                `json:"-"`
	TypeID          string              `json:"type_id"`
	BaseTypeID      cmis.BaseTypeID     `json:"base_type_id"`
	Name            string              `json:"name"`
	Path            string              `json:"path,omitempty"`
	ParentIDs       []string            `json:"parent_ids,omitempty"`
	Properties      map[string]any      `json:"properties"`
	Content         *cmis.ContentStream `json:"content,omitempty"`
	ACL             *acl.Acl            `json:"-"`
	ChangeToken     string              `json:"change_token"`
	VersionSeriesID string              `json:"version_series_id,omitempty"`
	IsPWC           bool                `json:"is_pwc,omitempty"`
	IsLatestVersion bool                `json:"is_latest_version,omitempty"`
	CheckedOutBy    string              `json:"checked_out_by,omitempty"`
	SourceID        string              `json:"source_id,omitempty"`
	TargetID        string              `json:"target_id,omitempty"`
}

// Value returns the property value for propertyID. It makes Object usable
// as a query candidate.
func (o *Object) Value(propertyID string) (any, bool) {
	v, ok := o.Properties[propertyID]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// IsFolder reports whether o is a folder.
func (o *Object) IsFolder() bool {
	return o.Kind == KindFolder
}

// IsDocument reports whether o is a document or a document version.
func (o *Object) IsDocument() bool {
	return o.BaseTypeID == cmis.BaseTypeDocument
}

// Container is one node of a folder-tree projection.
type Container struct {
	Object   *Object      `json:"object"`
	Children []*Container `json:"children,omitempty"`
}

// Page is a window of a name-sorted listing.
type Page struct {
	Objects      []*Object `json:"objects"`
	NumItems     int       `json:"num_items"`
	HasMoreItems bool      `json:"has_more_items"`
}

func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if list, ok := v.([]any); ok {
			v = append([]any(nil), list...)
		}
		out[k] = v
	}
	return out
}
