package typedef

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/tendant/simple-cmis/pkg/cmis"
)

type typeFile struct {
	Types []typeSpec `yaml:"types"`
}

type typeSpec struct {
	ID                   string         `yaml:"id"`
	Parent               string         `yaml:"parent"`
	DisplayName          string         `yaml:"displayName"`
	QueryName            string         `yaml:"queryName"`
	Description          string         `yaml:"description"`
	Creatable            *bool          `yaml:"creatable"`
	Queryable            *bool          `yaml:"queryable"`
	Versionable          *bool          `yaml:"versionable"`
	ContentStreamAllowed string         `yaml:"contentStreamAllowed"`
	Properties           []propertySpec `yaml:"properties"`
}

type propertySpec struct {
	ID           string `yaml:"id"`
	QueryName    string `yaml:"queryName"`
	DisplayName  string `yaml:"displayName"`
	Description  string `yaml:"description"`
	Type         string `yaml:"type"`
	Cardinality  string `yaml:"cardinality"`
	Updatability string `yaml:"updatability"`
	Required     bool   `yaml:"required"`
	Queryable    *bool  `yaml:"queryable"`
	Orderable    *bool  `yaml:"orderable"`
	Default      []any  `yaml:"default"`
}

// LoadYAML reads custom type definitions from r and registers them in file
// order, so a type may name an earlier one as its parent. Loading stops at
// the first invalid type; types registered before it stay registered.
func (r *Registry) LoadYAML(in io.Reader) ([]string, error) {
	var f typeFile
	dec := yaml.NewDecoder(in)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, cmis.Errorf(cmis.ErrInvalidArgument, "decode type definitions: %v", err)
	}

	var ids []string
	for _, spec := range f.Types {
		if err := r.register(spec); err != nil {
			return ids, fmt.Errorf("type %q: %w", spec.ID, err)
		}
		ids = append(ids, spec.ID)
	}
	return ids, nil
}

// LoadYAMLFile is LoadYAML over the file at path.
func (r *Registry) LoadYAMLFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open type definitions: %w", err)
	}
	defer f.Close()
	return r.LoadYAML(f)
}

func (r *Registry) register(spec typeSpec) error {
	if spec.Parent == "" {
		return cmis.Errorf(cmis.ErrInvalidArgument, "parent is required")
	}
	t, err := r.CreateChildType(spec.Parent, spec.ID, spec.DisplayName)
	if err != nil {
		return err
	}
	if spec.QueryName != "" {
		t.QueryName = spec.QueryName
	}
	t.Description = spec.Description
	if spec.Creatable != nil {
		t.Creatable = *spec.Creatable
	}
	if spec.Queryable != nil {
		t.Queryable = *spec.Queryable
	}
	if spec.Versionable != nil {
		if t.BaseTypeID != cmis.BaseTypeDocument && *spec.Versionable {
			return cmis.Errorf(cmis.ErrInvalidArgument, "only document types can be versionable")
		}
		t.Versionable = *spec.Versionable
	}
	if spec.ContentStreamAllowed != "" {
		if t.BaseTypeID != cmis.BaseTypeDocument {
			return cmis.Errorf(cmis.ErrInvalidArgument, "contentStreamAllowed applies to document types only")
		}
		csa := cmis.ContentStreamAllowed(spec.ContentStreamAllowed)
		switch csa {
		case cmis.ContentStreamNotAllowed, cmis.ContentStreamAllowedOpt, cmis.ContentStreamRequired:
		default:
			return cmis.Errorf(cmis.ErrInvalidArgument, "unknown contentStreamAllowed %q", spec.ContentStreamAllowed)
		}
		t.ContentStreamAllowed = csa
	}

	defs := make([]*PropertyDefinition, 0, len(spec.Properties))
	for _, p := range spec.Properties {
		d := &PropertyDefinition{
			ID:           p.ID,
			QueryName:    p.QueryName,
			DisplayName:  p.DisplayName,
			Description:  p.Description,
			PropertyType: cmis.PropertyType(p.Type),
			Cardinality:  cmis.Cardinality(p.Cardinality),
			Updatability: cmis.Updatability(p.Updatability),
			Required:     p.Required,
			Queryable:    true,
			Orderable:    true,
			DefaultValue: p.Default,
		}
		if p.Queryable != nil {
			d.Queryable = *p.Queryable
		}
		if p.Orderable != nil {
			d.Orderable = *p.Orderable
		}
		if d.Cardinality == cmis.CardinalityMulti {
			d.Orderable = false
		}
		defs = append(defs, d)
	}
	if err := r.MergeCustomProperties(t, defs...); err != nil {
		return err
	}
	return r.AddType(t)
}
