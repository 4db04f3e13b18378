// Package typedef implements the per-repository type registry: the catalog
// of type definitions, their inheritance chains and property definitions
// consumed by the object store and the query compiler.
package typedef

import (
	"sort"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// PropertyDefinition describes one property a type declares or inherits.
type PropertyDefinition struct {
	ID           string            `json:"id"`
	LocalName    string            `json:"local_name"`
	QueryName    string            `json:"query_name"`
	DisplayName  string            `json:"display_name"`
	Description  string            `json:"description,omitempty"`
	PropertyType cmis.PropertyType `json:"property_type"`
	Cardinality  cmis.Cardinality  `json:"cardinality"`
	Updatability cmis.Updatability `json:"updatability"`
	Required     bool              `json:"required"`
	Queryable    bool              `json:"queryable"`
	Orderable    bool              `json:"orderable"`
	Inherited    bool              `json:"inherited"`
	DefaultValue []any             `json:"default_value,omitempty"`
}

// Clone returns a deep copy of d.
func (d *PropertyDefinition) Clone() *PropertyDefinition {
	cp := *d
	if d.DefaultValue != nil {
		cp.DefaultValue = append([]any(nil), d.DefaultValue...)
	}
	return &cp
}

// MultiValued reports whether the property holds a list.
func (d *PropertyDefinition) MultiValued() bool {
	return d.Cardinality == cmis.CardinalityMulti
}

// applyDefaults fills in the optional naming and mode attributes.
func (d *PropertyDefinition) applyDefaults() {
	if d.LocalName == "" {
		d.LocalName = d.ID
	}
	if d.QueryName == "" {
		d.QueryName = d.ID
	}
	if d.DisplayName == "" {
		d.DisplayName = d.LocalName
	}
	if d.Cardinality == "" {
		d.Cardinality = cmis.CardinalitySingle
	}
	if d.Updatability == "" {
		d.Updatability = cmis.UpdatabilityReadWrite
	}
}

// TypeDefinition describes an object type.
type TypeDefinition struct {
	ID                       string                         `json:"id"`
	LocalName                string                         `json:"local_name"`
	QueryName                string                         `json:"query_name"`
	DisplayName              string                         `json:"display_name"`
	Description              string                         `json:"description,omitempty"`
	BaseTypeID               cmis.BaseTypeID                `json:"base_type_id"`
	ParentTypeID             string                         `json:"parent_type_id,omitempty"`
	Creatable                bool                           `json:"creatable"`
	Fileable                 bool                           `json:"fileable"`
	Queryable                bool                           `json:"queryable"`
	FulltextIndexed          bool                           `json:"fulltext_indexed"`
	IncludedInSupertypeQuery bool                           `json:"included_in_supertype_query"`
	ControllableACL          bool                           `json:"controllable_acl"`
	ControllablePolicy       bool                           `json:"controllable_policy"`
	Versionable              bool                           `json:"versionable,omitempty"`
	ContentStreamAllowed     cmis.ContentStreamAllowed      `json:"content_stream_allowed,omitempty"`
	AllowedSourceTypes       []string                       `json:"allowed_source_types,omitempty"`
	AllowedTargetTypes       []string                       `json:"allowed_target_types,omitempty"`
	PropertyDefinitions      map[string]*PropertyDefinition `json:"property_definitions,omitempty"`
}

// Clone returns a deep copy of t. When includeProps is false the copy carries
// no property definitions, which keeps type-browsing responses small.
func (t *TypeDefinition) Clone(includeProps bool) *TypeDefinition {
	cp := *t
	cp.AllowedSourceTypes = append([]string(nil), t.AllowedSourceTypes...)
	cp.AllowedTargetTypes = append([]string(nil), t.AllowedTargetTypes...)
	cp.PropertyDefinitions = nil
	if includeProps {
		cp.PropertyDefinitions = make(map[string]*PropertyDefinition, len(t.PropertyDefinitions))
		for id, d := range t.PropertyDefinitions {
			cp.PropertyDefinitions[id] = d.Clone()
		}
	}
	return &cp
}

// Property returns the definition for id.
func (t *TypeDefinition) Property(id string) (*PropertyDefinition, bool) {
	d, ok := t.PropertyDefinitions[id]
	return d, ok
}

// PropertyByQueryName returns the definition whose query name is queryName.
func (t *TypeDefinition) PropertyByQueryName(queryName string) (*PropertyDefinition, bool) {
	for _, d := range t.PropertyDefinitions {
		if d.QueryName == queryName {
			return d, true
		}
	}
	return nil, false
}

// PropertyIDs returns the property ids sorted by query name.
func (t *TypeDefinition) PropertyIDs() []string {
	ids := make([]string, 0, len(t.PropertyDefinitions))
	for id := range t.PropertyDefinitions {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		return t.PropertyDefinitions[ids[i]].QueryName < t.PropertyDefinitions[ids[j]].QueryName
	})
	return ids
}

func (t *TypeDefinition) applyDefaults() {
	if t.LocalName == "" {
		t.LocalName = t.ID
	}
	if t.QueryName == "" {
		t.QueryName = t.ID
	}
	if t.DisplayName == "" {
		t.DisplayName = t.LocalName
	}
	if t.PropertyDefinitions == nil {
		t.PropertyDefinitions = make(map[string]*PropertyDefinition)
	}
}

// TypeContainer is one node of a type-tree projection.
type TypeContainer struct {
	Type     *TypeDefinition  `json:"type"`
	Children []*TypeContainer `json:"children,omitempty"`
}
