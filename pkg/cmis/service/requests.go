package service

import (
	"io"

	"github.com/tendant/simple-cmis/pkg/cmis"
	"github.com/tendant/simple-cmis/pkg/cmis/acl"
	"github.com/tendant/simple-cmis/pkg/cmis/typedef"
)

// Request/Response DTOs

// ContentInput is a content stream supplied by a client
type ContentInput struct {
	Reader   io.Reader
	MimeType string
	FileName string
}

// CreateFolderRequest contains parameters for creating a folder
type CreateFolderRequest struct {
	ParentID   string
	TypeID     string // defaults to cmis:folder
	Properties map[string]any
	ACL        []acl.Ace // replaces the ACL inherited from the parent
}

// CreateDocumentRequest contains parameters for creating a document
type CreateDocumentRequest struct {
	ParentID        string // may be empty when the repository supports unfiling
	TypeID          string // defaults to cmis:document
	Properties      map[string]any
	Content         *ContentInput
	VersioningState cmis.VersioningState
	ACL             []acl.Ace
}

// CreatePolicyRequest contains parameters for creating a policy
type CreatePolicyRequest struct {
	TypeID     string // defaults to cmis:policy
	Properties map[string]any
}

// CreateRelationshipRequest contains parameters for creating a relationship
type CreateRelationshipRequest struct {
	TypeID     string // defaults to cmis:relationship
	SourceID   string
	TargetID   string
	Properties map[string]any
}

// CheckInRequest contains the changes applied when checking in a PWC
type CheckInRequest struct {
	Major      bool
	Comment    string
	Properties map[string]any
	Content    *ContentInput
}

// DeleteTreeRequest contains parameters for deleting a folder tree
type DeleteTreeRequest struct {
	AllVersions       bool
	Unfile            cmis.UnfileObject
	ContinueOnFailure bool
}

// CreateTypeRequest contains parameters for registering a custom type
type CreateTypeRequest struct {
	ID          string
	ParentID    string
	DisplayName string
	QueryName   string
	Description string
	Properties  []*typedef.PropertyDefinition
}

// ContentStream is an open content stream. The caller must close Body.
type ContentStream struct {
	Stream *cmis.ContentStream
	Body   io.ReadCloser
}

// QueryRequest contains a query statement and its paging parameters
type QueryRequest struct {
	Statement         string
	SearchAllVersions bool
	MaxItems          *int // nil means no limit
	SkipCount         int
}
