package cmis

import "time"

// BaseTypeID identifies one of the CMIS base object types.
type BaseTypeID string

// Base type constants (typed).
const (
	BaseTypeDocument     BaseTypeID = "cmis:document"
	BaseTypeFolder       BaseTypeID = "cmis:folder"
	BaseTypeRelationship BaseTypeID = "cmis:relationship"
	BaseTypePolicy       BaseTypeID = "cmis:policy"
)

// BaseTypes lists the base types in the order they are reported as roots.
var BaseTypes = []BaseTypeID{BaseTypeDocument, BaseTypeFolder, BaseTypeRelationship, BaseTypePolicy}

// Valid reports whether b is a known base type.
func (b BaseTypeID) Valid() bool {
	switch b {
	case BaseTypeDocument, BaseTypeFolder, BaseTypeRelationship, BaseTypePolicy:
		return true
	}
	return false
}

// PropertyType is the data type of a property definition.
type PropertyType string

const (
	PropertyTypeString   PropertyType = "string"
	PropertyTypeBoolean  PropertyType = "boolean"
	PropertyTypeInteger  PropertyType = "integer"
	PropertyTypeDecimal  PropertyType = "decimal"
	PropertyTypeDateTime PropertyType = "datetime"
	PropertyTypeID       PropertyType = "id"
	PropertyTypeURI      PropertyType = "uri"
	PropertyTypeHTML     PropertyType = "html"
)

// Valid reports whether t is a known property type.
func (t PropertyType) Valid() bool {
	switch t {
	case PropertyTypeString, PropertyTypeBoolean, PropertyTypeInteger, PropertyTypeDecimal,
		PropertyTypeDateTime, PropertyTypeID, PropertyTypeURI, PropertyTypeHTML:
		return true
	}
	return false
}

// Cardinality states whether a property holds one value or a list.
type Cardinality string

const (
	CardinalitySingle Cardinality = "single"
	CardinalityMulti  Cardinality = "multi"
)

// Updatability states when a property may be written.
type Updatability string

const (
	UpdatabilityReadOnly       Updatability = "readonly"
	UpdatabilityReadWrite      Updatability = "readwrite"
	UpdatabilityWhenCheckedOut Updatability = "whencheckedout"
	UpdatabilityOnCreate       Updatability = "oncreate"
)

// ContentStreamAllowed states whether documents of a type carry content.
type ContentStreamAllowed string

const (
	ContentStreamNotAllowed ContentStreamAllowed = "notallowed"
	ContentStreamAllowedOpt ContentStreamAllowed = "allowed"
	ContentStreamRequired   ContentStreamAllowed = "required"
)

// VersioningState is the state a new document is created in.
type VersioningState string

const (
	VersioningStateNone       VersioningState = "none"
	VersioningStateMajor      VersioningState = "major"
	VersioningStateMinor      VersioningState = "minor"
	VersioningStateCheckedOut VersioningState = "checkedout"
)

// UnfileObject controls how deleteTree treats objects filed elsewhere.
type UnfileObject string

const (
	UnfileObjectUnfile            UnfileObject = "unfile"
	UnfileObjectDeleteSingleFiled UnfileObject = "deletesinglefiled"
	UnfileObjectDelete            UnfileObject = "delete"
)

// ContentStream describes the content attached to a document or version.
// The bytes themselves live in a BlobStore under StreamID.
type ContentStream struct {
	StreamID string `json:"stream_id"`
	Length   int64  `json:"length"`
	MimeType string `json:"mime_type"`
	FileName string `json:"file_name"`
}

// Clone returns a copy of c, or nil when c is nil.
func (c *ContentStream) Clone() *ContentStream {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// ObjectMeta contains metadata about a blob in storage
type ObjectMeta struct {
	Key         string
	Size        int64
	ContentType string
	UpdatedAt   time.Time
}
