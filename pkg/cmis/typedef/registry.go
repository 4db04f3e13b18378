package typedef

import (
	"sync"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

// Registry is the type catalog of one repository. Canonical definitions
// never leave the registry: every accessor hands out deep copies.
type Registry struct {
	mu         sync.RWMutex
	types      map[string]*TypeDefinition
	children   map[string][]string
	queryNames map[string]string
	roots      []string
}

// NewRegistry creates a registry holding the four CMIS base types.
func NewRegistry() *Registry {
	r := &Registry{
		types:      make(map[string]*TypeDefinition),
		children:   make(map[string][]string),
		queryNames: make(map[string]string),
	}
	for _, t := range baseTypes() {
		r.types[t.ID] = t
		r.queryNames[t.QueryName] = t.ID
		r.roots = append(r.roots, t.ID)
	}
	return r
}

// GetTypeByID returns a copy of the type definition with id.
func (r *Registry) GetTypeByID(id string) (*TypeDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.types[id]
	if !ok {
		return nil, cmis.Errorf(cmis.ErrObjectNotFound, "unknown type %q", id)
	}
	return t.Clone(true), nil
}

// GetTypeByQueryName returns a copy of the type definition whose query name
// is queryName.
func (r *Registry) GetTypeByQueryName(queryName string) (*TypeDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.queryNames[queryName]
	if !ok {
		return nil, cmis.Errorf(cmis.ErrObjectNotFound, "unknown type query name %q", queryName)
	}
	return r.types[id].Clone(true), nil
}

// RootTypes returns the base types.
func (r *Registry) RootTypes() []*TypeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*TypeDefinition, 0, len(r.roots))
	for _, id := range r.roots {
		out = append(out, r.types[id].Clone(true))
	}
	return out
}

// Children returns the direct subtypes of typeID, or the base types when
// typeID is empty.
func (r *Registry) Children(typeID string, includeProps bool) ([]*TypeDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.roots
	if typeID != "" {
		if _, ok := r.types[typeID]; !ok {
			return nil, cmis.Errorf(cmis.ErrObjectNotFound, "unknown type %q", typeID)
		}
		ids = r.children[typeID]
	}
	out := make([]*TypeDefinition, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.types[id].Clone(includeProps))
	}
	return out, nil
}

// Descendants returns a deep-cloned projection of the type tree below
// typeID (or below the roots when typeID is empty). depth -1 means
// unlimited; depth 1 returns only direct children.
func (r *Registry) Descendants(typeID string, depth int, includeProps bool) ([]*TypeContainer, error) {
	if depth == 0 || depth < -1 {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "depth must be -1 or greater than 0, got %d", depth)
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := r.roots
	if typeID != "" {
		if _, ok := r.types[typeID]; !ok {
			return nil, cmis.Errorf(cmis.ErrObjectNotFound, "unknown type %q", typeID)
		}
		ids = r.children[typeID]
	}
	return r.project(ids, depth, includeProps), nil
}

func (r *Registry) project(ids []string, depth int, includeProps bool) []*TypeContainer {
	out := make([]*TypeContainer, 0, len(ids))
	for _, id := range ids {
		c := &TypeContainer{Type: r.types[id].Clone(includeProps)}
		if depth != 1 && len(r.children[id]) > 0 {
			next := depth - 1
			if depth == -1 {
				next = -1
			}
			c.Children = r.project(r.children[id], next, includeProps)
		}
		out = append(out, c)
	}
	return out
}

// CreateChildType builds an unregistered subtype of parentID that inherits
// all of the parent's property definitions and type flags. Register it with
// AddType once custom properties have been merged.
func (r *Registry) CreateChildType(parentID, id, displayName string) (*TypeDefinition, error) {
	if id == "" {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "type id is required")
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	parent, ok := r.types[parentID]
	if !ok {
		return nil, cmis.Errorf(cmis.ErrObjectNotFound, "unknown parent type %q", parentID)
	}
	if _, exists := r.types[id]; exists {
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "type %q already exists", id)
	}

	child := parent.Clone(true)
	child.ID = id
	child.LocalName = id
	child.QueryName = id
	child.DisplayName = displayName
	child.Description = ""
	child.ParentTypeID = parent.ID
	for _, d := range child.PropertyDefinitions {
		d.Inherited = true
	}
	child.applyDefaults()
	return child, nil
}

// MergeCustomProperties adds defs to t. It fails without modifying t if any
// new property id is already present on t or anywhere in its ancestor chain,
// or appears twice in defs.
func (r *Registry) MergeCustomProperties(t *TypeDefinition, defs ...*PropertyDefinition) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if d == nil || d.ID == "" {
			return cmis.Errorf(cmis.ErrInvalidArgument, "property definition without id in type %q", t.ID)
		}
		if !d.PropertyType.Valid() {
			return cmis.Errorf(cmis.ErrInvalidArgument, "property %q has unknown type %q", d.ID, d.PropertyType)
		}
		if seen[d.ID] {
			return cmis.Errorf(cmis.ErrInvalidArgument, "property %q defined twice", d.ID)
		}
		seen[d.ID] = true
		if _, exists := t.PropertyDefinitions[d.ID]; exists {
			return cmis.Errorf(cmis.ErrInvalidArgument, "property %q already defined in type %q", d.ID, t.ID)
		}
		if owner := r.ancestorDefining(t.ParentTypeID, d.ID); owner != "" {
			return cmis.Errorf(cmis.ErrInvalidArgument, "property %q already defined in ancestor type %q", d.ID, owner)
		}
	}

	if t.PropertyDefinitions == nil {
		t.PropertyDefinitions = make(map[string]*PropertyDefinition, len(defs))
	}
	for _, d := range defs {
		cp := d.Clone()
		cp.applyDefaults()
		cp.Inherited = false
		t.PropertyDefinitions[cp.ID] = cp
	}
	return nil
}

// ancestorDefining walks up from typeID and returns the first type that
// declares propertyID, or "" when none does.
func (r *Registry) ancestorDefining(typeID, propertyID string) string {
	for typeID != "" {
		t, ok := r.types[typeID]
		if !ok {
			return ""
		}
		if _, ok := t.PropertyDefinitions[propertyID]; ok {
			return t.ID
		}
		typeID = t.ParentTypeID
	}
	return ""
}

// AddType registers t as a subtype of t.ParentTypeID. Parent properties the
// definition lacks are inherited; the registry stores its own copy of t.
func (r *Registry) AddType(t *TypeDefinition) error {
	if t == nil || t.ID == "" {
		return cmis.Errorf(cmis.ErrInvalidArgument, "type id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[t.ID]; exists {
		return cmis.Errorf(cmis.ErrInvalidArgument, "type %q already exists", t.ID)
	}
	parent, ok := r.types[t.ParentTypeID]
	if !ok {
		return cmis.Errorf(cmis.ErrInvalidArgument, "unknown parent type %q for type %q", t.ParentTypeID, t.ID)
	}
	if t.BaseTypeID == "" {
		t.BaseTypeID = parent.BaseTypeID
	}
	if t.BaseTypeID != parent.BaseTypeID {
		return cmis.Errorf(cmis.ErrInvalidArgument, "type %q has base type %q but parent %q has %q",
			t.ID, t.BaseTypeID, parent.ID, parent.BaseTypeID)
	}

	def := t.Clone(true)
	def.applyDefaults()
	if owner, ok := r.queryNames[def.QueryName]; ok {
		return cmis.Errorf(cmis.ErrInvalidArgument, "query name %q already used by type %q", def.QueryName, owner)
	}
	for id, pd := range parent.PropertyDefinitions {
		own, ok := def.PropertyDefinitions[id]
		if !ok {
			inherited := pd.Clone()
			inherited.Inherited = true
			def.PropertyDefinitions[id] = inherited
			continue
		}
		if !own.Inherited {
			return cmis.Errorf(cmis.ErrInvalidArgument, "property %q already defined in ancestor type %q", id, parent.ID)
		}
	}

	r.types[def.ID] = def
	r.queryNames[def.QueryName] = def.ID
	r.children[parent.ID] = append(r.children[parent.ID], def.ID)
	return nil
}

// IsSubtypeOf reports whether typeID equals ancestorID or descends from it.
func (r *Registry) IsSubtypeOf(typeID, ancestorID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for typeID != "" {
		if typeID == ancestorID {
			return true
		}
		t, ok := r.types[typeID]
		if !ok {
			return false
		}
		typeID = t.ParentTypeID
	}
	return false
}

// SubtypeIDs returns typeID followed by every descendant type that is
// included in supertype queries, depth first.
func (r *Registry) SubtypeIDs(typeID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if _, ok := r.types[typeID]; !ok {
		return nil
	}
	out := []string{typeID}
	var walk func(id string)
	walk = func(id string) {
		for _, child := range r.children[id] {
			if !r.types[child].IncludedInSupertypeQuery {
				continue
			}
			out = append(out, child)
			walk(child)
		}
	}
	walk(typeID)
	return out
}
